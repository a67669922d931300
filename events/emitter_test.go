package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitterRouting(t *testing.T) {
	e := NewEmitter()
	var typed, all []EventType
	e.Subscribe(EventGameOver, func(ev Event) { typed = append(typed, ev.Type) })
	e.SubscribeAll(func(ev Event) { all = append(all, ev.Type) })

	e.Emit(Event{Type: EventGameStarted})
	e.Emit(Event{Type: EventGameOver})

	assert.Equal(t, []EventType{EventGameOver}, typed)
	assert.Equal(t, []EventType{EventGameStarted, EventGameOver}, all)
}

func TestEmitterRecoversPanics(t *testing.T) {
	e := NewEmitter()
	called := false
	e.Subscribe(EventRoundFinished, func(Event) { panic("boom") })
	e.Subscribe(EventRoundFinished, func(Event) { called = true })

	assert.NotPanics(t, func() { e.Emit(Event{Type: EventRoundFinished}) })
	assert.True(t, called)
}
