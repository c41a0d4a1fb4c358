package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/housielabs/housie/internal/randutil"
	"github.com/housielabs/housie/internal/ticket"
)

func TestDrawCoversFullRange(t *testing.T) {
	d := NewDrawer(randutil.New(1))
	called := make(map[int]bool)

	for i := 0; i < ticket.MaxNumber; i++ {
		n, err := d.Draw(called)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 1)
		require.LessOrEqual(t, n, ticket.MaxNumber)
		require.False(t, called[n], "drew %d twice", n)
		called[n] = true
	}

	require.Len(t, called, ticket.MaxNumber)
}

func TestDrawExhausted(t *testing.T) {
	d := NewDrawer(randutil.New(1))
	called := make(map[int]bool)
	for n := 1; n <= ticket.MaxNumber; n++ {
		called[n] = true
	}

	_, err := d.Draw(called)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestDrawDeterministic(t *testing.T) {
	a := NewDrawer(randutil.New(5))
	b := NewDrawer(randutil.New(5))

	calledA := make(map[int]bool)
	calledB := make(map[int]bool)
	for i := 0; i < 20; i++ {
		na, err := a.Draw(calledA)
		require.NoError(t, err)
		nb, err := b.Draw(calledB)
		require.NoError(t, err)
		assert.Equal(t, na, nb)
		calledA[na] = true
		calledB[nb] = true
	}
}
