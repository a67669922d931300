package core

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindUnwrapsEngineErrors(t *testing.T) {
	wrapped := fmt.Errorf("fruit_claim: %w", ErrNoFruitToClaim)
	assert.Equal(t, "NoFruitTokensToClaim", Kind(wrapped))
	assert.Equal(t, "Unauthorized", Kind(fmt.Errorf("a: %w", fmt.Errorf("b: %w", ErrUnauthorized))))
	assert.Equal(t, "Internal", Kind(errors.New("disk on fire")))
	assert.Equal(t, "", Kind(nil))
}

func TestKindCoversEverySentinel(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range errorKinds {
		assert.Equal(t, k.kind, Kind(k.err))
		assert.False(t, seen[k.kind], "duplicate kind %s", k.kind)
		seen[k.kind] = true
	}
}

func TestSafeArithmetic(t *testing.T) {
	sum, err := SafeAdd(2, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), sum)

	_, err = SafeAdd(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrOverflow)

	prod, err := SafeMul(1<<31, 1<<31)
	require.NoError(t, err)
	assert.Equal(t, uint64(1<<62), prod)

	_, err = SafeMul(1<<32, 1<<32)
	assert.ErrorIs(t, err, ErrOverflow)
}
