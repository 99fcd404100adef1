package backend

import (
	"barter-exchange/internal/bartererrors"
	model "barter-exchange/internal/models"
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// CatalogClient reads products from the remote catalog
type CatalogClient struct {
	client *Client
}

// NewCatalogClient creates a catalog client for baseURL
func NewCatalogClient(baseURL string, timeout time.Duration) (*CatalogClient, error) {
	c, err := NewClient("catalog", baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &CatalogClient{client: c}, nil
}

type productDTO struct {
	ID        string   `json:"id"`
	ProductID string   `json:"productId"`
	OwnerID   string   `json:"ownerId"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Stock     *float64 `json:"stock"`
	Unit      string   `json:"unit"`
	Quantity  string   `json:"quantity"` // legacy "<amount> <unit>" form
	Tradable  bool     `json:"tradable"`
}

func (d productDTO) toModel() (model.Product, error) {
	p := model.Product{
		ProductID: d.ID,
		OwnerID:   d.OwnerID,
		Name:      d.Name,
		Price:     d.Price,
		Unit:      d.Unit,
		Tradable:  d.Tradable,
	}
	if p.ProductID == "" {
		p.ProductID = d.ProductID
	}
	if p.ProductID == "" {
		return model.Product{}, fmt.Errorf("product without id")
	}

	switch {
	case d.Stock != nil:
		p.Stock = *d.Stock
	case d.Quantity != "":
		q, err := model.ParseQuantity(d.Quantity)
		if err != nil {
			return model.Product{}, fmt.Errorf("product %s: %w", p.ProductID, err)
		}
		p.Stock = q.Amount
		if p.Unit == "" {
			p.Unit = q.Unit
		}
	}
	return p, nil
}

// GetProduct fetches one product
func (c *CatalogClient) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	var dto productDTO
	if err := c.client.getJSON(ctx, "/products/"+url.PathEscape(productID), nil, bartererrors.ErrProductNotFound, &dto); err != nil {
		return model.Product{}, err
	}

	p, err := dto.toModel()
	if err != nil {
		return model.Product{}, &bartererrors.UpstreamError{Service: c.client.service, StatusCode: 200, Message: err.Error()}
	}
	return p, nil
}

// ListProducts fetches the products matching filter
func (c *CatalogClient) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	query := url.Values{}
	if filter.OwnerID != "" {
		query.Set("ownerId", filter.OwnerID)
	}
	if filter.Tradable != nil {
		query.Set("tradable", strconv.FormatBool(*filter.Tradable))
	}
	if filter.StockGreaterThan != nil {
		query.Set("stockGreaterThan", strconv.FormatFloat(*filter.StockGreaterThan, 'f', -1, 64))
	}

	var dtos []productDTO
	if err := c.client.getJSON(ctx, "/products", query, nil, &dtos); err != nil {
		return nil, err
	}

	products := make([]model.Product, 0, len(dtos))
	for _, dto := range dtos {
		p, err := dto.toModel()
		if err != nil {
			return nil, &bartererrors.UpstreamError{Service: c.client.service, StatusCode: 200, Message: err.Error()}
		}
		// the backend may ignore filters it does not know
		if filter.Matches(p) {
			products = append(products, p)
		}
	}
	return products, nil
}
