package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"breadth-api/internal/model"
)

func TestRegistryAdoptIfMissing(t *testing.T) {
	store := newFakeBasePrices()
	r := NewRegistry(store)
	ctx := context.Background()

	adopted, err := r.AdoptIfMissing(ctx, "AAAUSDT", 12.5, 1000)
	require.NoError(t, err)
	require.True(t, adopted)

	// A second adoption is a no-op and keeps the original price.
	adopted, err = r.AdoptIfMissing(ctx, "AAAUSDT", 99, 2000)
	require.NoError(t, err)
	require.False(t, adopted)

	price, ok := r.Base("AAAUSDT")
	require.True(t, ok)
	require.Equal(t, 12.5, price)
	require.Equal(t, 12.5, store.rows["AAAUSDT"].Price)

	createdAt, ok := r.CreatedAt("AAAUSDT")
	require.True(t, ok)
	require.Equal(t, int64(1000), createdAt)
}

func TestRegistryRejectsNonPositivePrice(t *testing.T) {
	r := NewRegistry(newFakeBasePrices())
	adopted, err := r.AdoptIfMissing(context.Background(), "AAAUSDT", 0, 1000)
	require.NoError(t, err)
	require.False(t, adopted)
	require.Zero(t, r.Len())
}

func TestRegistryAdoptBatchSkipsExisting(t *testing.T) {
	store := newFakeBasePrices()
	r := NewRegistry(store)
	ctx := context.Background()

	_, err := r.AdoptIfMissing(ctx, "AAAUSDT", 1, 1000)
	require.NoError(t, err)

	adopted, err := r.AdoptBatch(ctx, map[string]float64{
		"AAAUSDT": 50,
		"BBBUSDT": 2,
		"CCCUSDT": 3,
	}, 2000)
	require.NoError(t, err)
	require.Equal(t, 2, adopted)

	price, _ := r.Base("AAAUSDT")
	require.Equal(t, 1.0, price)
	require.Equal(t, 3, r.Len())
}

func TestRegistryReconcileRevokesDelisted(t *testing.T) {
	store := newFakeBasePrices()
	store.rows["AAAUSDT"] = model.BasePrice{Symbol: "AAAUSDT", Price: 1, CreatedAtMs: 1}
	store.rows["BBBUSDT"] = model.BasePrice{Symbol: "BBBUSDT", Price: 2, CreatedAtMs: 1}

	r := NewRegistry(store)
	ctx := context.Background()
	require.NoError(t, r.Load(ctx))

	revoked, err := r.ReconcileWithActive(ctx, []string{"AAAUSDT"})
	require.NoError(t, err)
	require.Equal(t, []string{"BBBUSDT"}, revoked)

	_, ok := r.Base("BBBUSDT")
	require.False(t, ok)
	require.NotContains(t, store.rows, "BBBUSDT")

	// An empty active set revokes nothing.
	revoked, err = r.ReconcileWithActive(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, revoked)
	require.Equal(t, 1, r.Len())
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	r := NewRegistry(newFakeBasePrices())
	_, err := r.AdoptIfMissing(context.Background(), "AAAUSDT", 5, 1)
	require.NoError(t, err)

	snap := r.Snapshot()
	snap["AAAUSDT"] = 999

	price, _ := r.Base("AAAUSDT")
	require.Equal(t, 5.0, price)
}
