package helpers

import (
	"fmt"
	"math"
	"time"

	model "barter-exchange/internal/models"
)

// Request DTOs

// ItemRequest selects a product and an amount. The amount may be given either
// as amount+unit or as a "<number> <unit>" quantity string.
type ItemRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	Amount    float64 `json:"amount"`
	Unit      string  `json:"unit"`
	Quantity  string  `json:"quantity"`
}

type CreateProposalRequest struct {
	RecipientID    string        `json:"recipient_id" binding:"required"`
	OfferedItems   []ItemRequest `json:"offered_items" binding:"dive"`
	RequestedItems []ItemRequest `json:"requested_items" binding:"dive"`
	Message        string        `json:"message" binding:"max=1000"`
}

type CounterProposalRequest struct {
	OfferedItems   []ItemRequest `json:"offered_items" binding:"dive"`
	RequestedItems []ItemRequest `json:"requested_items" binding:"dive"`
	Message        string        `json:"message" binding:"max=1000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ProductQuery holds the optional catalog filters of GET /products
type ProductQuery struct {
	OwnerID          string   `form:"owner_id"`
	Tradable         *bool    `form:"tradable"`
	StockGreaterThan *float64 `form:"stock_greater_than"`
}

// ToFilter converts the query into a ProductFilter
func (q ProductQuery) ToFilter() (model.ProductFilter, error) {
	if v := q.StockGreaterThan; v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
		return model.ProductFilter{}, fmt.Errorf("stock_greater_than must be a finite number")
	}
	return model.ProductFilter{
		OwnerID:          q.OwnerID,
		Tradable:         q.Tradable,
		StockGreaterThan: q.StockGreaterThan,
	}, nil
}

// ToItem converts the request into a BarterItem
func (r ItemRequest) ToItem() (model.BarterItem, error) {
	q := model.Quantity{Amount: r.Amount, Unit: r.Unit}
	if r.Quantity != "" {
		parsed, err := model.ParseQuantity(r.Quantity)
		if err != nil {
			return model.BarterItem{}, err
		}
		q = parsed
	}
	return model.BarterItem{ProductID: r.ProductID, Quantity: q}, nil
}

func toItems(side string, reqs []ItemRequest) ([]model.BarterItem, error) {
	items := make([]model.BarterItem, 0, len(reqs))
	for i, r := range reqs {
		item, err := r.ToItem()
		if err != nil {
			return nil, fmt.Errorf("%s item %d: %w", side, i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// ToDraft converts the request into a ProposalDraft
func (r CreateProposalRequest) ToDraft() (model.ProposalDraft, error) {
	offered, err := toItems("offered", r.OfferedItems)
	if err != nil {
		return model.ProposalDraft{}, err
	}
	requested, err := toItems("requested", r.RequestedItems)
	if err != nil {
		return model.ProposalDraft{}, err
	}
	return model.ProposalDraft{
		RecipientID:    r.RecipientID,
		OfferedItems:   offered,
		RequestedItems: requested,
		Message:        r.Message,
	}, nil
}

// ToDraft converts the request into a ProposalDraft; the recipient is implied by the original
func (r CounterProposalRequest) ToDraft() (model.ProposalDraft, error) {
	return CreateProposalRequest{
		OfferedItems:   r.OfferedItems,
		RequestedItems: r.RequestedItems,
		Message:        r.Message,
	}.ToDraft()
}

// Response DTOs

type ItemResponse struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Amount    float64 `json:"amount"`
	Unit      string  `json:"unit"`
	Quantity  string  `json:"quantity"`
}

type ProposalResponse struct {
	ProposalID        string         `json:"proposal_id"`
	ProposerID        string         `json:"proposer_id"`
	RecipientID       string         `json:"recipient_id"`
	OfferedItems      []ItemResponse `json:"offered_items"`
	RequestedItems    []ItemResponse `json:"requested_items"`
	Status            string         `json:"status"`
	Message           string         `json:"message,omitempty"`
	CounterProposalID string         `json:"counter_proposal_id,omitempty"`
	ParentProposalID  string         `json:"parent_proposal_id,omitempty"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at"`
}

type CounterProposalResponse struct {
	Original        ProposalResponse `json:"original"`
	CounterProposal ProposalResponse `json:"counter_proposal"`
}

type CounterDraftResponse struct {
	RecipientID    string         `json:"recipient_id"`
	OfferedItems   []ItemResponse `json:"offered_items"`
	RequestedItems []ItemResponse `json:"requested_items"`
}

type DifferenceResponse struct {
	Amount  float64 `json:"amount"`
	Unit    string  `json:"unit"`
	Product string  `json:"product"`
}

type EquityResponse struct {
	IsFair               bool                `json:"is_fair"`
	Message              string              `json:"message"`
	DifferencePercentage float64             `json:"difference_percentage"`
	Difference           *DifferenceResponse `json:"difference,omitempty"`
	WithinThreshold      bool                `json:"within_threshold"`
}

func newItemResponses(items []model.BarterItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Amount:    it.Quantity.Amount,
			Unit:      it.Quantity.Unit,
			Quantity:  it.Quantity.String(),
		})
	}
	return out
}

// NewProposalResponse renders a proposal for the API
func NewProposalResponse(p model.BarterProposal) ProposalResponse {
	return ProposalResponse{
		ProposalID:        p.ProposalID,
		ProposerID:        p.ProposerID,
		RecipientID:       p.RecipientID,
		OfferedItems:      newItemResponses(p.OfferedItems),
		RequestedItems:    newItemResponses(p.RequestedItems),
		Status:            string(p.Status),
		Message:           p.Message,
		CounterProposalID: p.CounterProposalID,
		ParentProposalID:  p.ParentProposalID,
		CreatedAt:         p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// NewProposalResponses renders a list, never nil
func NewProposalResponses(ps []model.BarterProposal) []ProposalResponse {
	out := make([]ProposalResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, NewProposalResponse(p))
	}
	return out
}

func NewCounterDraftResponse(d model.ProposalDraft) CounterDraftResponse {
	return CounterDraftResponse{
		RecipientID:    d.RecipientID,
		OfferedItems:   newItemResponses(d.OfferedItems),
		RequestedItems: newItemResponses(d.RequestedItems),
	}
}

func NewEquityResponse(v model.EquityVerdict, withinThreshold bool) EquityResponse {
	resp := EquityResponse{
		IsFair:               v.IsFair,
		Message:              v.Message,
		DifferencePercentage: v.DifferencePercentage,
		WithinThreshold:      withinThreshold,
	}
	if v.Difference != nil {
		resp.Difference = &DifferenceResponse{
			Amount:  v.Difference.Amount,
			Unit:    v.Difference.Unit,
			Product: v.Difference.Product,
		}
	}
	return resp
}
