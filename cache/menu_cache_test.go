package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-ops/database"
	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

// countingCatalog records how often reads reach the database.
type countingCatalog struct {
	services.MenuCatalog
	gets  int
	lists int
}

func (c *countingCatalog) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	c.gets++
	return c.MenuCatalog.GetMenuItem(ctx, id)
}

func (c *countingCatalog) ListMenuItems(ctx context.Context, f services.MenuFilter) ([]models.MenuItem, error) {
	c.lists++
	return c.MenuCatalog.ListMenuItems(ctx, f)
}

func setup(t *testing.T) (*CachedMenu, *countingCatalog, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	db, err := database.OpenInMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	inner := &countingCatalog{MenuCatalog: services.NewMenuService(services.NewStore(db, 5*time.Second))}
	return NewCachedMenu(inner, rdb, time.Minute, utils.NewTestLogger()), inner, mr
}

func TestGetMenuItemIsCached(t *testing.T) {
	cached, inner, mr := setup(t)
	ctx := context.Background()

	item, err := cached.CreateMenuItem(ctx, services.MenuItemInput{Name: "Arepa", Price: decimal.RequireFromString("6.50")})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := cached.GetMenuItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, "Arepa", got.Name)
		assert.True(t, got.Price.Equal(decimal.RequireFromString("6.50")))
	}
	assert.Equal(t, 1, inner.gets)
	assert.True(t, mr.Exists(itemKey(item.ID)))
}

func TestMissingItemIsNegativelyCached(t *testing.T) {
	cached, inner, mr := setup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := cached.GetMenuItem(ctx, 404)
		assert.ErrorIs(t, err, services.ErrNotFound)
	}
	assert.Equal(t, 1, inner.gets)

	val, err := mr.Get(itemKey(404))
	require.NoError(t, err)
	assert.Equal(t, notFoundMarker, val)

	mr.FastForward(2 * notFoundTTL)
	_, err = cached.GetMenuItem(ctx, 404)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Equal(t, 2, inner.gets)
}

func TestWritesInvalidate(t *testing.T) {
	cached, inner, _ := setup(t)
	ctx := context.Background()

	item, err := cached.CreateMenuItem(ctx, services.MenuItemInput{Name: "Empanada", Price: decimal.RequireFromString("3")})
	require.NoError(t, err)

	list, err := cached.ListMenuItems(ctx, services.MenuFilter{AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = cached.ListMenuItems(ctx, services.MenuFilter{AvailableOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.lists)

	off := false
	_, err = cached.UpdateMenuItem(ctx, item.ID, services.MenuItemUpdate{IsAvailable: &off})
	require.NoError(t, err)

	list, err = cached.ListMenuItems(ctx, services.MenuFilter{AvailableOnly: true})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 2, inner.lists)

	got, err := cached.GetMenuItem(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAvailable)
}

func TestSearchBypassesCache(t *testing.T) {
	cached, inner, _ := setup(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := cached.ListMenuItems(ctx, services.MenuFilter{Search: "soup"})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, inner.lists)
}

func TestRedisDownFallsBack(t *testing.T) {
	cached, inner, mr := setup(t)
	ctx := context.Background()

	item, err := cached.CreateMenuItem(ctx, services.MenuItemInput{Name: "Bandeja", Price: decimal.RequireFromString("28")})
	require.NoError(t, err)

	mr.Close()
	got, err := cached.GetMenuItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bandeja", got.Name)
	assert.Equal(t, 1, inner.gets)
}

func TestToggleAvailabilityInvalidates(t *testing.T) {
	cached, inner, _ := setup(t)
	ctx := context.Background()

	item, err := cached.CreateMenuItem(ctx, services.MenuItemInput{Name: "Tamal", Price: decimal.RequireFromString("4.25")})
	require.NoError(t, err)

	list, err := cached.ListMenuItems(ctx, services.MenuFilter{AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)

	toggled, err := cached.ToggleAvailability(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsAvailable)

	list, err = cached.ListMenuItems(ctx, services.MenuFilter{AvailableOnly: true})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 2, inner.lists)
}

func TestAllergenFilterHasItsOwnKey(t *testing.T) {
	assert.NotEqual(t,
		listKey(services.MenuFilter{}),
		listKey(services.MenuFilter{Allergen: "Gluten"}))
	assert.Equal(t,
		listKey(services.MenuFilter{Allergen: "gluten"}),
		listKey(services.MenuFilter{Allergen: " Gluten "}))
}
