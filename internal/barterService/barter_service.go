package barter

import (
	"barter-exchange/internal/bartererrors"
	"barter-exchange/internal/equity"
	model "barter-exchange/internal/models"
	"barter-exchange/internal/repository"
	"barter-exchange/utils"
	"context"
	"fmt"
	"time"
)

// BarterService implements the barter proposal lifecycle
type BarterService struct {
	store     repository.ProposalStore
	catalog   repository.Catalog
	evaluator equity.Evaluator
	policy    equity.Policy
	now       func() time.Time
}

// NewBarterService creates a new BarterService instance
func NewBarterService(store repository.ProposalStore, catalog repository.Catalog, evaluator equity.Evaluator, policy equity.Policy) *BarterService {
	return &BarterService{
		store:     store,
		catalog:   catalog,
		evaluator: evaluator,
		policy:    policy,
		now:       time.Now,
	}
}

// SubmitProposal validates a draft and records it as a pending proposal from the session user
func (s *BarterService) SubmitProposal(ctx context.Context, session model.Session, draft model.ProposalDraft) (model.BarterProposal, error) {
	if err := requireSession(session); err != nil {
		return model.BarterProposal{}, err
	}
	if err := validateParties(session.UserID, draft.RecipientID); err != nil {
		return model.BarterProposal{}, err
	}
	if err := validateSelection(draft.OfferedItems, draft.RequestedItems); err != nil {
		return model.BarterProposal{}, err
	}

	offered, requested, err := s.resolveSelection(ctx, session.UserID, draft.RecipientID, draft)
	if err != nil {
		return model.BarterProposal{}, err
	}

	now := s.now().UTC()
	proposal := model.BarterProposal{
		ProposalID:     utils.GenerateID(),
		ProposerID:     session.UserID,
		RecipientID:    draft.RecipientID,
		OfferedItems:   offered,
		RequestedItems: requested,
		Status:         model.StatusPending,
		Message:        draft.Message,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.CreateProposal(ctx, proposal); err != nil {
		return model.BarterProposal{}, fmt.Errorf("service: failed to store proposal from %s to %s: %w", session.UserID, draft.RecipientID, err)
	}

	return proposal, nil
}

// resolveSelection checks both sides against the catalog and the equity policy
func (s *BarterService) resolveSelection(ctx context.Context, proposerID, recipientID string, draft model.ProposalDraft) ([]model.BarterItem, []model.BarterItem, error) {
	offered, err := s.resolveItems(ctx, draft.OfferedItems, proposerID, proposerID)
	if err != nil {
		return nil, nil, err
	}
	requested, err := s.resolveItems(ctx, draft.RequestedItems, recipientID, proposerID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.checkEquity(ctx, offered[0].ProductID, requested[0].ProductID); err != nil {
		return nil, nil, err
	}
	return offered, requested, nil
}

// checkEquity asks the evaluator about the lead items and applies the local policy
func (s *BarterService) checkEquity(ctx context.Context, offeredProductID, requestedProductID string) error {
	verdict, err := s.evaluator.Evaluate(ctx, offeredProductID, requestedProductID)
	if err != nil {
		return fmt.Errorf("service: failed to evaluate equity of %s for %s: %w", offeredProductID, requestedProductID, upstreamError("equity evaluator", err))
	}

	if err := s.policy.Check(verdict); err != nil {
		return fmt.Errorf("service: %s for %s: %w", offeredProductID, requestedProductID, err)
	}

	if !verdict.IsFair {
		utils.Warn("equity evaluator marked trade unfair within threshold", map[string]any{
			"offered_product_id":    offeredProductID,
			"requested_product_id":  requestedProductID,
			"difference_percentage": verdict.DifferencePercentage,
		})
	}
	return nil
}

// EvaluateEquity returns the evaluator's verdict for a pair of products without applying the policy
func (s *BarterService) EvaluateEquity(ctx context.Context, session model.Session, offeredProductID, requestedProductID string) (model.EquityVerdict, error) {
	if err := requireSession(session); err != nil {
		return model.EquityVerdict{}, err
	}
	if offeredProductID == "" || requestedProductID == "" {
		return model.EquityVerdict{}, fmt.Errorf("service: %w - both product ids are required", bartererrors.ErrMissingField)
	}
	if offeredProductID == requestedProductID {
		return model.EquityVerdict{}, fmt.Errorf("service: %w - product %s compared with itself", bartererrors.ErrSelfTrade, offeredProductID)
	}

	verdict, err := s.evaluator.Evaluate(ctx, offeredProductID, requestedProductID)
	if err != nil {
		return model.EquityVerdict{}, fmt.Errorf("service: failed to evaluate equity of %s for %s: %w", offeredProductID, requestedProductID, upstreamError("equity evaluator", err))
	}
	return verdict, nil
}

// WithinThreshold reports whether a verdict would let a proposal through
func (s *BarterService) WithinThreshold(verdict model.EquityVerdict) bool {
	return s.policy.WithinThreshold(verdict)
}

// RespondToProposal applies accept, reject or cancel and returns the stored result
func (s *BarterService) RespondToProposal(ctx context.Context, session model.Session, proposalID string, action model.ResponseAction) (model.BarterProposal, error) {
	rule, ok := responseRules[action]
	if !ok {
		return model.BarterProposal{}, fmt.Errorf("service: %w - %q", bartererrors.ErrInvalidAction, action)
	}
	if err := requireSession(session); err != nil {
		return model.BarterProposal{}, err
	}
	if err := checkProposalID(proposalID); err != nil {
		return model.BarterProposal{}, err
	}

	proposal, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return model.BarterProposal{}, fmt.Errorf("service: failed to load proposal %s: %w", proposalID, err)
	}

	if err := rule.authorize(proposal, session.UserID); err != nil {
		return model.BarterProposal{}, err
	}

	updated, err := s.store.TransitionStatus(ctx, proposalID, rule.from, rule.to)
	if err != nil {
		return model.BarterProposal{}, fmt.Errorf("service: failed to %s proposal %s: %w", action, proposalID, err)
	}

	return updated, nil
}

// CreateCounterProposal answers a pending proposal with a new one in the opposite direction.
// It returns the original, now countered, and the new pending counter-proposal.
func (s *BarterService) CreateCounterProposal(ctx context.Context, session model.Session, originalID string, draft model.ProposalDraft) (model.BarterProposal, model.BarterProposal, error) {
	if err := requireSession(session); err != nil {
		return model.BarterProposal{}, model.BarterProposal{}, err
	}
	if err := checkProposalID(originalID); err != nil {
		return model.BarterProposal{}, model.BarterProposal{}, err
	}

	original, err := s.store.GetProposal(ctx, originalID)
	if err != nil {
		return model.BarterProposal{}, model.BarterProposal{}, fmt.Errorf("service: failed to load proposal %s: %w", originalID, err)
	}
	// authorization precedes payload checks
	if err := counterRule.authorize(original, session.UserID); err != nil {
		return model.BarterProposal{}, model.BarterProposal{}, err
	}
	if err := validateSelection(draft.OfferedItems, draft.RequestedItems); err != nil {
		return model.BarterProposal{}, model.BarterProposal{}, err
	}

	proposerID, recipientID := original.RecipientID, original.ProposerID
	if draft.RecipientID != "" && draft.RecipientID != recipientID {
		return model.BarterProposal{}, model.BarterProposal{}, fmt.Errorf("service: %w - a counter-proposal goes back to %s", bartererrors.ErrValidation, recipientID)
	}

	offered, requested, err := s.resolveSelection(ctx, proposerID, recipientID, draft)
	if err != nil {
		return model.BarterProposal{}, model.BarterProposal{}, err
	}

	now := s.now().UTC()
	counter := model.BarterProposal{
		ProposalID:       utils.GenerateID(),
		ProposerID:       proposerID,
		RecipientID:      recipientID,
		OfferedItems:     offered,
		RequestedItems:   requested,
		Status:           model.StatusPending,
		Message:          draft.Message,
		ParentProposalID: original.ProposalID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	updated, err := s.store.CreateCounterProposal(ctx, original.ProposalID, counter)
	if err != nil {
		return model.BarterProposal{}, model.BarterProposal{}, fmt.Errorf("service: failed to counter proposal %s: %w", originalID, err)
	}

	return updated, counter, nil
}

// CounterDraft pre-fills a counter-proposal: the original's requested items become the
// offer and its offered items become the request
func (s *BarterService) CounterDraft(ctx context.Context, session model.Session, originalID string) (model.ProposalDraft, error) {
	if err := requireSession(session); err != nil {
		return model.ProposalDraft{}, err
	}
	if err := checkProposalID(originalID); err != nil {
		return model.ProposalDraft{}, err
	}

	original, err := s.store.GetProposal(ctx, originalID)
	if err != nil {
		return model.ProposalDraft{}, fmt.Errorf("service: failed to load proposal %s: %w", originalID, err)
	}
	if err := counterRule.authorize(original, session.UserID); err != nil {
		return model.ProposalDraft{}, err
	}

	swapped := original.Clone()
	return model.ProposalDraft{
		RecipientID:    original.ProposerID,
		OfferedItems:   swapped.RequestedItems,
		RequestedItems: swapped.OfferedItems,
	}, nil
}

// GetProposal returns a proposal the session user is party to
func (s *BarterService) GetProposal(ctx context.Context, session model.Session, proposalID string) (model.BarterProposal, error) {
	if err := requireSession(session); err != nil {
		return model.BarterProposal{}, err
	}
	if err := checkProposalID(proposalID); err != nil {
		return model.BarterProposal{}, err
	}

	proposal, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return model.BarterProposal{}, fmt.Errorf("service: failed to get proposal %s: %w", proposalID, err)
	}
	if !proposal.Involves(session.UserID) {
		return model.BarterProposal{}, fmt.Errorf("service: %w - user %s on proposal %s", bartererrors.ErrNotParty, session.UserID, proposalID)
	}

	return proposal, nil
}

// ListProposals returns the session user's proposals, newest first, optionally filtered by status
func (s *BarterService) ListProposals(ctx context.Context, session model.Session, status model.ProposalStatus) ([]model.BarterProposal, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("service: %w - unknown status %q", bartererrors.ErrValidation, status)
	}

	proposals, err := s.store.ListProposalsByUser(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list proposals for user %s: %w", session.UserID, err)
	}

	if status == "" {
		return proposals, nil
	}

	filtered := make([]model.BarterProposal, 0, len(proposals))
	for _, p := range proposals {
		if p.Status == status {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}
