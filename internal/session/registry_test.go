package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-tracker-web/internal/models"
	"price-tracker-web/internal/session"
	"price-tracker-web/pkg/sequence"
)

type noopAPI struct{}

func (noopAPI) Track(context.Context, string, models.TrackAction) (models.TrackResponse, error) {
	return models.TrackResponse{Status: "success"}, nil
}

func newRegistry(t *testing.T, views int, seq sequence.Source) *session.Registry {
	t.Helper()
	r, err := session.NewRegistry(session.Config{Views: views, TrackedPerView: 8}, seq, noopAPI{}, nil)
	require.NoError(t, err)
	return r
}

func TestGetReusesView(t *testing.T) {
	r := newRegistry(t, 4, sequence.NewMemory())
	id := session.NewID()

	a, err := r.Get(id)
	require.NoError(t, err)
	b, err := r.Get(id)
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, id, a.ID)
}

func TestGetReplacesInvalidID(t *testing.T) {
	r := newRegistry(t, 4, sequence.NewMemory())

	v, err := r.Get("<script>")
	require.NoError(t, err)
	assert.True(t, session.ValidID(v.ID))
	assert.NotEqual(t, "<script>", v.ID)
}

func TestEvictionForgetsSequence(t *testing.T) {
	ctx := context.Background()
	seq := sequence.NewMemory()
	r := newRegistry(t, 1, seq)

	first, err := r.Get(session.NewID())
	require.NoError(t, err)
	tk, err := first.Navigator.Begin(ctx)
	require.NoError(t, err)

	_, err = r.Get(session.NewID())
	require.NoError(t, err)

	assert.Equal(t, 1, r.Len())
	_, ok := r.Lookup(first.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, tk.Ctx.Err(), context.Canceled)

	latest, _ := seq.Latest(ctx, first.ID)
	assert.Zero(t, latest)
}
