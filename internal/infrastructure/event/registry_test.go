package event

import (
	"testing"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertHandlers(t *testing.T, got []shared.EventHandler, want ...*testHandler) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Same(t, want[i], got[i], "handler %d", i)
	}
}

func TestSubscriptions_Order(t *testing.T) {
	var r subscriptions
	specific := newTestHandler()
	wildcard := newTestHandler()
	late := newTestHandler()

	r.add(wildcard, nil)
	r.add(specific, []string{"a", "b"})
	r.add(late, []string{"a"})

	assertHandlers(t, r.forType("a"), wildcard, specific, late)
	assertHandlers(t, r.forType("b"), wildcard, specific)
	assertHandlers(t, r.forType("c"), wildcard)
	assert.Equal(t, 3, r.count())
}

func TestSubscriptions_Remove(t *testing.T) {
	var r subscriptions
	h1 := newTestHandler()
	h2 := newTestHandler()
	r.add(h1, []string{"a"})
	r.add(h2, []string{"a"})
	r.add(h1, nil)

	r.remove(h1)

	handlers := r.forType("a")
	assert.Len(t, handlers, 1)
	assert.Same(t, h2, handlers[0])

	r.remove(h2)
	assert.Empty(t, r.forType("a"))
	assert.Zero(t, r.count())
}
