package barter

import (
	"barter-exchange/internal/bartererrors"
	model "barter-exchange/internal/models"
	"fmt"
	"slices"
)

type role int

const (
	roleProposer role = iota
	roleRecipient
)

// transitionRule is one row of the proposal state machine
type transitionRule struct {
	actor role
	from  []model.ProposalStatus
	to    model.ProposalStatus
}

var pendingOnly = []model.ProposalStatus{model.StatusPending}

var responseRules = map[model.ResponseAction]transitionRule{
	model.ActionAccept: {actor: roleRecipient, from: pendingOnly, to: model.StatusAccepted},
	model.ActionReject: {actor: roleRecipient, from: pendingOnly, to: model.StatusRejected},
	model.ActionCancel: {actor: roleProposer, from: []model.ProposalStatus{model.StatusPending, model.StatusCountered}, to: model.StatusCancelled},
}

var counterRule = transitionRule{actor: roleRecipient, from: pendingOnly, to: model.StatusCountered}

// authorize checks, in order: the actor is a party, the status allows the
// transition, the actor holds the required role.
func (r transitionRule) authorize(p model.BarterProposal, actorID string) error {
	if !p.Involves(actorID) {
		return fmt.Errorf("service: %w - user %s on proposal %s", bartererrors.ErrNotParty, actorID, p.ProposalID)
	}

	if !slices.Contains(r.from, p.Status) {
		if slices.Equal(r.from, pendingOnly) {
			return fmt.Errorf("service: %w - proposal %s is %s", bartererrors.ErrNotPending, p.ProposalID, p.Status)
		}
		return fmt.Errorf("service: %w - proposal %s is %s, cannot become %s", bartererrors.ErrStateConflict, p.ProposalID, p.Status, r.to)
	}

	switch r.actor {
	case roleRecipient:
		if p.RecipientID != actorID {
			return fmt.Errorf("service: %w - proposal %s", bartererrors.ErrNotRecipient, p.ProposalID)
		}
	case roleProposer:
		if p.ProposerID != actorID {
			return fmt.Errorf("service: %w - proposal %s", bartererrors.ErrNotProposer, p.ProposalID)
		}
	}
	return nil
}

// ActionForStatus maps a requested target status to the response action that produces it.
// Countering is not a plain status change and has no action.
func ActionForStatus(status model.ProposalStatus) (model.ResponseAction, bool) {
	for action, rule := range responseRules {
		if rule.to == status {
			return action, true
		}
	}
	return "", false
}
