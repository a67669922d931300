package vm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tolelom/snakegame/core"
)

// Handler is the function signature every transaction module must implement.
type Handler func(ctx *Context, payload json.RawMessage) error

type entry struct {
	handler Handler
	payable bool
}

// Registry maps TxTypes to Handlers. Thread-safe for concurrent registration.
type Registry struct {
	mu       sync.RWMutex
	handlers map[core.TxType]entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[core.TxType]entry)}
}

// Register associates typ with h. Panics on duplicate registration.
func (r *Registry) Register(typ core.TxType, h Handler, payable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[typ]; exists {
		panic(fmt.Sprintf("vm: handler already registered for TxType %q", typ))
	}
	r.handlers[typ] = entry{handler: h, payable: payable}
}

func (r *Registry) lookup(typ core.TxType) (entry, error) {
	r.mu.RLock()
	e, ok := r.handlers[typ]
	r.mu.RUnlock()
	if !ok {
		return entry{}, fmt.Errorf("vm: no handler registered for TxType %q: %w", typ, core.ErrInvalidPayload)
	}
	return e, nil
}

// Types returns the registered transaction types.
func (r *Registry) Types() []core.TxType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.TxType, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	return out
}

// globalRegistry is the package-level singleton that modules register into.
var globalRegistry = NewRegistry()

// Register adds a non-payable handler to the global registry.
// Module init() functions call this to self-register.
func Register(typ core.TxType, h Handler) {
	globalRegistry.Register(typ, h, false)
}

// RegisterPayable adds a handler that accepts an attached native payment.
func RegisterPayable(typ core.TxType, h Handler) {
	globalRegistry.Register(typ, h, true)
}

// Decode unmarshals a transaction payload into v. An empty payload leaves v
// at its zero value.
func Decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 || string(payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidPayload, err)
	}
	return nil
}
