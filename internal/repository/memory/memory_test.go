package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/grid-manager/internal/model"
	"github.com/sakif/grid-manager/internal/repository"
	"github.com/sakif/grid-manager/internal/repository/storetest"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Storage {
		return New()
	})
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	g, err := s.CreateGrid(ctx, model.InsertGrid{Name: "Main", Nickname: "main"})
	require.NoError(t, err)

	g.Name = "mutated"
	*g.LastStarted = time.Time{}

	got, err := s.GetGrid(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main", got.Name)
	assert.False(t, got.LastStarted.IsZero())
}

func TestCreateGridUsesClock(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := New()
	s.now = func() time.Time { return fixed }

	g, err := s.CreateGrid(context.Background(), model.InsertGrid{Name: "Main"})
	require.NoError(t, err)
	require.NotNil(t, g.LastStarted)
	assert.Equal(t, fixed, *g.LastStarted)
}
