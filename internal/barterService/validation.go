package barter

import (
	"barter-exchange/internal/bartererrors"
	model "barter-exchange/internal/models"
	"barter-exchange/utils"
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentLookups bounds parallel catalog requests per proposal
const maxConcurrentLookups = 4

func requireSession(session model.Session) error {
	if session.UserID == "" {
		return fmt.Errorf("service: %w", bartererrors.ErrNoSession)
	}
	return nil
}

// checkProposalID rejects ids GenerateID could not have produced before any store lookup
func checkProposalID(id string) error {
	if id == "" {
		return fmt.Errorf("service: %w - proposal id", bartererrors.ErrMissingField)
	}
	if !utils.IsID(id) {
		return fmt.Errorf("service: %w - malformed proposal id %q", bartererrors.ErrProposalNotFound, id)
	}
	return nil
}

// validateParties rejects a missing recipient and trades with oneself
func validateParties(proposerID, recipientID string) error {
	if recipientID == "" {
		return fmt.Errorf("service: %w - recipient", bartererrors.ErrMissingField)
	}
	if proposerID == recipientID {
		return fmt.Errorf("service: %w - proposer and recipient are both %s", bartererrors.ErrSelfTrade, proposerID)
	}
	return nil
}

// validateSelection checks item shape only; it needs no catalog access
func validateSelection(offered, requested []model.BarterItem) error {
	if len(offered) == 0 || len(requested) == 0 {
		return fmt.Errorf("service: %w - %d offered, %d requested", bartererrors.ErrEmptySelection, len(offered), len(requested))
	}

	offeredIDs, err := validateSide("offered", offered)
	if err != nil {
		return err
	}
	requestedIDs, err := validateSide("requested", requested)
	if err != nil {
		return err
	}

	for id := range offeredIDs {
		if _, ok := requestedIDs[id]; ok {
			return fmt.Errorf("service: %w - product %s is on both sides", bartererrors.ErrSelfTrade, id)
		}
	}
	return nil
}

func validateSide(side string, items []model.BarterItem) (map[string]struct{}, error) {
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.ProductID == "" {
			return nil, fmt.Errorf("service: %w - %s item %d has no product", bartererrors.ErrMissingField, side, i)
		}
		if !item.Quantity.Valid() {
			return nil, fmt.Errorf("service: %w - %s product %s has quantity %v", bartererrors.ErrInvalidQuantity, side, item.ProductID, item.Quantity.Amount)
		}
		if _, dup := seen[item.ProductID]; dup {
			return nil, fmt.Errorf("service: %w - %s product %s", bartererrors.ErrDuplicateItem, side, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}
	return seen, nil
}

// resolveItems checks each item against the catalog and returns copies carrying
// the product name and unit snapshot. ownerID must own every product; a product
// owned by proposerID instead is a self-trade.
func (s *BarterService) resolveItems(ctx context.Context, items []model.BarterItem, ownerID, proposerID string) ([]model.BarterItem, error) {
	products := make([]model.Product, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			p, err := s.catalog.GetProduct(gctx, item.ProductID)
			if err != nil {
				return fmt.Errorf("service: failed to load product %s: %w", item.ProductID, catalogError(err))
			}
			products[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolved := make([]model.BarterItem, 0, len(items))
	for i, item := range items {
		product := products[i]

		switch product.OwnerID {
		case ownerID:
		case proposerID:
			return nil, fmt.Errorf("service: %w - product %s already belongs to %s", bartererrors.ErrSelfTrade, product.ProductID, proposerID)
		default:
			return nil, fmt.Errorf("service: %w - product %s belongs to %s, not %s", bartererrors.ErrItemNotOwned, product.ProductID, product.OwnerID, ownerID)
		}

		if !product.Tradable {
			return nil, fmt.Errorf("service: %w - product %s is not tradable", bartererrors.ErrItemUnavailable, product.ProductID)
		}
		if item.Quantity.Amount > product.Stock {
			return nil, fmt.Errorf("service: %w - product %s has %v in stock, %v requested", bartererrors.ErrItemUnavailable, product.ProductID, product.Stock, item.Quantity.Amount)
		}
		if item.Quantity.Unit != "" && product.Unit != "" && !strings.EqualFold(item.Quantity.Unit, product.Unit) {
			return nil, fmt.Errorf("service: %w - product %s is sold in %s, got %s", bartererrors.ErrUnitMismatch, product.ProductID, product.Unit, item.Quantity.Unit)
		}

		unit := product.Unit
		if unit == "" {
			unit = item.Quantity.Unit
		}
		resolved = append(resolved, model.BarterItem{
			ProductID: product.ProductID,
			Name:      product.Name,
			Quantity:  model.Quantity{Amount: item.Quantity.Amount, Unit: unit},
		})
	}
	return resolved, nil
}

// catalogError tags uncategorised catalog failures as upstream errors
func catalogError(err error) error {
	return upstreamError("catalog", err)
}

func upstreamError(service string, err error) error {
	if bartererrors.Category(err) != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &bartererrors.UpstreamError{Service: service, Message: err.Error()}
}
