package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ops/models"
	"github.com/yeremiapane/restaurant-ops/services"
)

const (
	notFoundMarker = "notfound"
	notFoundTTL    = time.Minute
	listPattern    = "menu:list:*"
)

// CachedMenu is a read-through cache in front of a services.MenuCatalog.
// Redis failures fall back to the wrapped catalog.
type CachedMenu struct {
	next  services.MenuCatalog
	redis *redis.Client
	ttl   time.Duration
	log   *logrus.Logger
}

var _ services.MenuCatalog = (*CachedMenu)(nil)

func NewCachedMenu(next services.MenuCatalog, rdb *redis.Client, ttl time.Duration, log *logrus.Logger) *CachedMenu {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedMenu{next: next, redis: rdb, ttl: ttl, log: log}
}

func itemKey(id uint) string {
	return fmt.Sprintf("menu:item:%d", id)
}

// listKey is empty for filters that are not cached.
func listKey(f services.MenuFilter) string {
	if f.Search != "" {
		return ""
	}
	category := "all"
	if f.CategoryID != nil {
		category = fmt.Sprint(*f.CategoryID)
	}
	return fmt.Sprintf("menu:list:%s:%t:%t:%s", category, f.AvailableOnly, f.FeaturedOnly,
		strings.ToLower(strings.TrimSpace(f.Allergen)))
}

func (c *CachedMenu) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, error) {
	key := itemKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, &services.NotFoundError{Entity: "menu item", ID: id}
		}
		var item models.MenuItem
		if err := json.Unmarshal(data, &item); err == nil {
			return &item, nil
		}
		c.log.WithField("key", key).Warn("corrupt menu cache entry, reading from database")
	case errors.Is(err, redis.Nil):
	default:
		c.log.WithError(err).Warn("redis error, reading menu item from database")
	}

	item, err := c.next.GetMenuItem(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			if setErr := c.redis.Set(ctx, key, notFoundMarker, notFoundTTL).Err(); setErr != nil {
				c.log.WithError(setErr).Warn("failed to cache missing menu item")
			}
		}
		return nil, err
	}

	c.store(ctx, key, item)
	return item, nil
}

func (c *CachedMenu) ListMenuItems(ctx context.Context, f services.MenuFilter) ([]models.MenuItem, error) {
	key := listKey(f)
	if key == "" {
		return c.next.ListMenuItems(ctx, f)
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var items []models.MenuItem
		if err := json.Unmarshal(data, &items); err == nil {
			return items, nil
		}
		c.log.WithField("key", key).Warn("corrupt menu cache entry, reading from database")
	case errors.Is(err, redis.Nil):
	default:
		c.log.WithError(err).Warn("redis error, listing menu from database")
	}

	items, err := c.next.ListMenuItems(ctx, f)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, items)
	return items, nil
}

func (c *CachedMenu) CreateMenuItem(ctx context.Context, in services.MenuItemInput) (*models.MenuItem, error) {
	item, err := c.next.CreateMenuItem(ctx, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, item.ID)
	return item, nil
}

func (c *CachedMenu) UpdateMenuItem(ctx context.Context, id uint, upd services.MenuItemUpdate) (*models.MenuItem, error) {
	item, err := c.next.UpdateMenuItem(ctx, id, upd)
	c.invalidate(ctx, id)
	return item, err
}

func (c *CachedMenu) DeleteMenuItem(ctx context.Context, id uint) error {
	err := c.next.DeleteMenuItem(ctx, id)
	c.invalidate(ctx, id)
	return err
}

func (c *CachedMenu) ToggleAvailability(ctx context.Context, id uint) (*models.MenuItem, error) {
	item, err := c.next.ToggleAvailability(ctx, id)
	c.invalidate(ctx, id)
	return item, err
}

func (c *CachedMenu) CloneMenuItem(ctx context.Context, sourceID uint, in services.MenuItemClone) (*models.MenuItem, error) {
	item, err := c.next.CloneMenuItem(ctx, sourceID, in)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, item.ID)
	return item, nil
}

func (c *CachedMenu) store(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.WithError(err).Warn("failed to marshal menu cache entry")
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("failed to cache menu entry")
	}
}

// invalidate drops the item entry and every cached list.
func (c *CachedMenu) invalidate(ctx context.Context, id uint) {
	keys := []string{itemKey(id)}

	iter := c.redis.Scan(ctx, 0, listPattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.WithError(err).Warn("failed to scan menu list cache")
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.log.WithError(err).Warn("failed to invalidate menu cache")
	}
}
