package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Session identifies the authenticated caller of a lifecycle operation
type Session struct {
	UserID  string `json:"user_id"`
	Premium bool   `json:"premium"`
}

// Quantity is an amount of a product expressed in the product's unit
type Quantity struct {
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// String renders the quantity in the "<number> <unit>" wire form
func (q Quantity) String() string {
	amount := strconv.FormatFloat(q.Amount, 'f', -1, 64)
	if q.Unit == "" {
		return amount
	}
	return amount + " " + q.Unit
}

// Valid reports whether the amount is a positive finite number
func (q Quantity) Valid() bool {
	return q.Amount > 0 && !math.IsInf(q.Amount, 0) && !math.IsNaN(q.Amount)
}

// ParseQuantity parses the "<number> <unit>" wire form, e.g. "10 kg" or "3"
func ParseQuantity(s string) (Quantity, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return Quantity{}, fmt.Errorf("parse quantity %q: %w", s, errMalformedQuantity)
	}

	amount, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("parse quantity %q: %w", s, errMalformedQuantity)
	}

	q := Quantity{Amount: amount}
	if len(fields) == 2 {
		q.Unit = fields[1]
	}
	return q, nil
}

var errMalformedQuantity = errors.New("malformed quantity")

// Product is a catalog record. It is read-only to the barter lifecycle.
type Product struct {
	ProductID string  `json:"product_id"`
	OwnerID   string  `json:"owner_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Stock     float64 `json:"stock"`
	Unit      string  `json:"unit"`
	Tradable  bool    `json:"tradable"`
}

// ProductFilter narrows a catalog listing. Zero values do not filter.
type ProductFilter struct {
	OwnerID          string   `json:"owner_id,omitempty"`
	Tradable         *bool    `json:"tradable,omitempty"`
	StockGreaterThan *float64 `json:"stock_greater_than,omitempty"`
}

// Matches reports whether p passes the filter
func (f ProductFilter) Matches(p Product) bool {
	if f.OwnerID != "" && p.OwnerID != f.OwnerID {
		return false
	}
	if f.Tradable != nil && p.Tradable != *f.Tradable {
		return false
	}
	if f.StockGreaterThan != nil && p.Stock <= *f.StockGreaterThan {
		return false
	}
	return true
}

// BarterItem is one line of a proposal. Name and unit are snapshotted from the
// product when the proposal is submitted.
type BarterItem struct {
	ProductID string   `json:"product_id"`
	Name      string   `json:"name"`
	Quantity  Quantity `json:"quantity"`
}

// ProposalStatus is the lifecycle state of a BarterProposal
type ProposalStatus string

const (
	StatusPending   ProposalStatus = "pending"
	StatusAccepted  ProposalStatus = "accepted"
	StatusRejected  ProposalStatus = "rejected"
	StatusCancelled ProposalStatus = "cancelled"
	StatusCountered ProposalStatus = "countered"
)

// Valid reports whether s is a known status
func (s ProposalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled, StatusCountered:
		return true
	}
	return false
}

// Absorbing reports whether no transition can leave s
func (s ProposalStatus) Absorbing() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusCancelled
}

// ResponseAction is a party's response to an existing proposal
type ResponseAction string

const (
	ActionAccept ResponseAction = "accept"
	ActionReject ResponseAction = "reject"
	ActionCancel ResponseAction = "cancel"
)

// BarterProposal is an offer to exchange the proposer's items for the recipient's items
type BarterProposal struct {
	ProposalID        string         `json:"proposal_id"`
	ProposerID        string         `json:"proposer_id"`
	RecipientID       string         `json:"recipient_id"`
	OfferedItems      []BarterItem   `json:"offered_items"`
	RequestedItems    []BarterItem   `json:"requested_items"`
	Status            ProposalStatus `json:"status"`
	Message           string         `json:"message,omitempty"`
	CounterProposalID string         `json:"counter_proposal_id,omitempty"`
	ParentProposalID  string         `json:"parent_proposal_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Involves reports whether userID is the proposer or the recipient
func (p BarterProposal) Involves(userID string) bool {
	return userID != "" && (p.ProposerID == userID || p.RecipientID == userID)
}

// Clone returns a copy that shares no slices with p
func (p BarterProposal) Clone() BarterProposal {
	p.OfferedItems = append([]BarterItem(nil), p.OfferedItems...)
	p.RequestedItems = append([]BarterItem(nil), p.RequestedItems...)
	return p
}

// ProposalDraft carries the caller-editable part of a proposal or counter-proposal
type ProposalDraft struct {
	RecipientID    string       `json:"recipient_id"`
	OfferedItems   []BarterItem `json:"offered_items"`
	RequestedItems []BarterItem `json:"requested_items"`
	Message        string       `json:"message,omitempty"`
}

// EquityDifference describes what would need to be added to balance a trade
type EquityDifference struct {
	Amount  float64 `json:"amount"`
	Unit    string  `json:"unit"`
	Product string  `json:"product"`
}

// EquityVerdict is the external evaluator's assessment of a trade
type EquityVerdict struct {
	IsFair               bool              `json:"is_fair"`
	Message              string            `json:"message"`
	DifferencePercentage float64           `json:"difference_percentage"`
	Difference           *EquityDifference `json:"difference,omitempty"`
}
