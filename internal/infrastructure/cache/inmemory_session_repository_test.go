package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockwave/harmony/internal/domain/variation"
)

func int64Ptr(v int64) *int64 { return &v }

func sampleSession(t *testing.T, productID int64) *variation.Session {
	t.Helper()
	attrs := []variation.Attribute{
		{Name: "Size", Options: []string{"S", "M"}, UsedForVariation: true, Visible: true},
	}
	persisted := []variation.Variation{
		{
			ID:           int64Ptr(900),
			Attributes:   []variation.AttributeOption{{Name: "Size", Option: "S"}},
			RegularPrice: "12.50",
			SKU:          "SC900",
			StockStatus:  variation.StockStatusInStock,
		},
	}
	s, err := variation.NewSession(productID, "Hoodie", attrs, variation.Defaults{RegularPrice: "12.50"}, persisted)
	require.NoError(t, err)
	return s
}

func TestInMemorySessionRepository_SaveAndFind(t *testing.T) {
	repo := NewInMemorySessionRepository()
	ctx := context.Background()

	session := sampleSession(t, 10)
	require.NoError(t, repo.Save(ctx, session))

	loaded, err := repo.FindByProductID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
	assert.Equal(t, "Hoodie", loaded.ProductName)
	assert.Equal(t, session.Attributes, loaded.Attributes)
	assert.Equal(t, session.Variations, loaded.Variations)
	assert.Empty(t, loaded.PendingEvents())

	t.Run("returned session is a copy", func(t *testing.T) {
		loaded.Variations[0].SKU = "mutated"
		loaded.Attributes[0].Options[0] = "XS"

		again, err := repo.FindByProductID(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, "SC900", again.Variations[0].SKU)
		assert.Equal(t, "S", again.Attributes[0].Options[0])
	})

	t.Run("saved session is a copy", func(t *testing.T) {
		session.ProductName = "changed after save"
		again, err := repo.FindByProductID(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, "Hoodie", again.ProductName)
	})
}

func TestInMemorySessionRepository_LastWriteWins(t *testing.T) {
	repo := NewInMemorySessionRepository()
	ctx := context.Background()

	first := sampleSession(t, 3)
	second := sampleSession(t, 3)
	second.Variations = []variation.Variation{}

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))
	assert.Equal(t, 1, repo.Len())

	loaded, err := repo.FindByProductID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, second.ID, loaded.ID)
	assert.Empty(t, loaded.Variations)
	assert.NotNil(t, loaded.Variations)
}

func TestInMemorySessionRepository_Delete(t *testing.T) {
	repo := NewInMemorySessionRepository()
	ctx := context.Background()

	_, err := repo.FindByProductID(ctx, 1)
	assert.ErrorIs(t, err, variation.ErrSessionNotFound)

	require.NoError(t, repo.Save(ctx, sampleSession(t, 1)))
	require.NoError(t, repo.DeleteByProductID(ctx, 1))
	_, err = repo.FindByProductID(ctx, 1)
	assert.ErrorIs(t, err, variation.ErrSessionNotFound)

	assert.NoError(t, repo.DeleteByProductID(ctx, 1))
}

func TestInMemorySessionRepository_DeleteIdleBefore(t *testing.T) {
	repo := NewInMemorySessionRepository()
	ctx := context.Background()
	now := time.Now()

	stale := sampleSession(t, 1)
	stale.UpdatedAt = now.Add(-2 * time.Hour)
	fresh := sampleSession(t, 2)
	fresh.UpdatedAt = now
	require.NoError(t, repo.Save(ctx, stale))
	require.NoError(t, repo.Save(ctx, fresh))

	removed, err := repo.DeleteIdleBefore(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, removed)
	assert.Equal(t, 1, repo.Len())

	_, err = repo.FindByProductID(ctx, 2)
	assert.NoError(t, err)
}

func TestInMemorySessionRepository_SaveNil(t *testing.T) {
	repo := NewInMemorySessionRepository()
	assert.Error(t, repo.Save(context.Background(), nil))
}

func TestInMemorySessionRepository_Concurrent(t *testing.T) {
	repo := NewInMemorySessionRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s := sampleSession(t, id%5)
			assert.NoError(t, repo.Save(ctx, s))
			_, err := repo.FindByProductID(ctx, id%5)
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 5, repo.Len())
}
