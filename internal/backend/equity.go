package backend

import (
	"barter-exchange/internal/bartererrors"
	model "barter-exchange/internal/models"
	"context"
	"net/url"
	"time"
)

// EquityClient asks the remote evaluator whether a trade is balanced
type EquityClient struct {
	client *Client
}

// NewEquityClient creates an evaluator client for baseURL
func NewEquityClient(baseURL string, timeout time.Duration) (*EquityClient, error) {
	c, err := NewClient("equity evaluator", baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &EquityClient{client: c}, nil
}

type verdictDTO struct {
	IsFair               *bool    `json:"isFair"`
	Message              string   `json:"message"`
	DifferencePercentage *float64 `json:"differencePercentage"`
	Difference           *struct {
		Amount  float64 `json:"amount"`
		Unit    string  `json:"unit"`
		Product string  `json:"product"`
	} `json:"difference"`
}

// Evaluate compares the offered product against the requested one
func (c *EquityClient) Evaluate(ctx context.Context, offeredProductID, requestedProductID string) (model.EquityVerdict, error) {
	query := url.Values{}
	query.Set("product1Id", offeredProductID)
	query.Set("product2Id", requestedProductID)

	var dto verdictDTO
	if err := c.client.getJSON(ctx, "/barter/value-comparison", query, bartererrors.ErrProductNotFound, &dto); err != nil {
		return model.EquityVerdict{}, err
	}

	if dto.IsFair == nil || dto.DifferencePercentage == nil {
		return model.EquityVerdict{}, &bartererrors.UpstreamError{
			Service:    c.client.service,
			StatusCode: 200,
			Message:    "verdict is missing isFair or differencePercentage",
		}
	}

	verdict := model.EquityVerdict{
		IsFair:               *dto.IsFair,
		Message:              dto.Message,
		DifferencePercentage: *dto.DifferencePercentage,
	}
	if dto.Difference != nil {
		verdict.Difference = &model.EquityDifference{
			Amount:  dto.Difference.Amount,
			Unit:    dto.Difference.Unit,
			Product: dto.Difference.Product,
		}
	}
	return verdict, nil
}
