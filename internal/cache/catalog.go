package cache

import (
	model "barter-exchange/internal/models"
	"barter-exchange/internal/repository"
	"barter-exchange/utils"
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// CachedCatalog puts a cache-aside layer in front of a Catalog. Cache failures
// are logged and fall through to the underlying catalog.
type CachedCatalog struct {
	next  repository.Catalog
	cache *Cache
	group singleflight.Group
}

// NewCachedCatalog wraps next with cache
func NewCachedCatalog(next repository.Catalog, cache *Cache) *CachedCatalog {
	return &CachedCatalog{next: next, cache: cache}
}

func productKey(id string) string {
	return "product:" + id
}

func listKey(f model.ProductFilter) string {
	key := "list:owner=" + f.OwnerID
	if f.Tradable != nil {
		key += ":tradable=" + strconv.FormatBool(*f.Tradable)
	}
	if f.StockGreaterThan != nil {
		key += ":stock_gt=" + strconv.FormatFloat(*f.StockGreaterThan, 'f', -1, 64)
	}
	return key
}

// GetProduct returns a product from cache, loading it once per key on a miss
func (c *CachedCatalog) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	key := productKey(productID)

	var cached model.Product
	found, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		utils.Warn("catalog cache read failed", map[string]any{"product_id": productID, "error": err.Error()})
	}
	if found {
		return cached, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		p, err := c.next.GetProduct(ctx, productID)
		if err != nil {
			return model.Product{}, err
		}
		if err := c.cache.Set(ctx, key, p); err != nil {
			utils.Warn("catalog cache write failed", map[string]any{"product_id": productID, "error": err.Error()})
		}
		return p, nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return v.(model.Product), nil
}

// ListProducts returns a filtered listing from cache or the underlying catalog
func (c *CachedCatalog) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	key := listKey(filter)

	var cached []model.Product
	found, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		utils.Warn("catalog cache read failed", map[string]any{"key": key, "error": err.Error()})
	}
	if found {
		return cached, nil
	}

	products, err := c.next.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, products); err != nil {
		utils.Warn("catalog cache write failed", map[string]any{"key": key, "error": err.Error()})
	}
	return products, nil
}

// Invalidate drops a product and every cached listing
func (c *CachedCatalog) Invalidate(ctx context.Context, productID string) error {
	if err := c.cache.Delete(ctx, productKey(productID)); err != nil {
		return err
	}
	if err := c.cache.DeletePattern(ctx, "list:*"); err != nil {
		return fmt.Errorf("invalidate listings: %w", err)
	}
	return nil
}
