package barter

import (
	"barter-exchange/internal/bartererrors"
	"barter-exchange/internal/equity"
	model "barter-exchange/internal/models"
	"barter-exchange/internal/repository"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixedEvaluator returns the same verdict for every pair and counts calls
type fixedEvaluator struct {
	verdict model.EquityVerdict
	calls   atomic.Int32
}

func (e *fixedEvaluator) Evaluate(_ context.Context, _, _ string) (model.EquityVerdict, error) {
	e.calls.Add(1)
	return e.verdict, nil
}

func setupLifecycle(t *testing.T, verdict model.EquityVerdict) (*BarterService, *repository.MemoryRepo, *fixedEvaluator) {
	t.Helper()

	repo := repository.NewMemoryRepo()
	repo.AddProduct(potatoes)
	repo.AddProduct(tomatoes)
	repo.AddProduct(tractor)
	repo.AddProduct(model.Product{ProductID: "onions", OwnerID: "bob", Name: "Onions", Price: 1.5, Stock: 25, Unit: "kg", Tradable: true})

	evaluator := &fixedEvaluator{verdict: verdict}
	return NewBarterService(repo, repo, evaluator, equity.DefaultPolicy()), repo, evaluator
}

func potatoesForTomatoes() model.ProposalDraft {
	return model.ProposalDraft{
		RecipientID:    "bob",
		OfferedItems:   []model.BarterItem{item("potatoes", 10, "kg")},
		RequestedItems: []model.BarterItem{item("tomatoes", 5, "kg")},
	}
}

var (
	aliceSession = model.Session{UserID: "alice"}
	bobSession   = model.Session{UserID: "bob"}
)

func TestLifecycle_SubmitAndAccept(t *testing.T) {
	ctx := context.Background()
	service, _, _ := setupLifecycle(t, model.EquityVerdict{IsFair: true, DifferencePercentage: 12})

	proposal, err := service.SubmitProposal(ctx, aliceSession, potatoesForTomatoes())
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, proposal.Status)

	accepted, err := service.RespondToProposal(ctx, bobSession, proposal.ProposalID, model.ActionAccept)
	require.NoError(t, err)
	require.Equal(t, model.StatusAccepted, accepted.Status)

	// accepted is absorbing
	_, err = service.RespondToProposal(ctx, aliceSession, proposal.ProposalID, model.ActionCancel)
	require.True(t, errors.Is(err, bartererrors.ErrStateConflict), "got: %v", err)

	_, err = service.RespondToProposal(ctx, bobSession, proposal.ProposalID, model.ActionReject)
	require.True(t, errors.Is(err, bartererrors.ErrStateConflict), "got: %v", err)

	stored, err := service.GetProposal(ctx, aliceSession, proposal.ProposalID)
	require.NoError(t, err)
	require.Equal(t, model.StatusAccepted, stored.Status)
}

func TestLifecycle_ProposerCancels(t *testing.T) {
	ctx := context.Background()
	service, _, _ := setupLifecycle(t, model.EquityVerdict{IsFair: true})

	proposal, err := service.SubmitProposal(ctx, aliceSession, potatoesForTomatoes())
	require.NoError(t, err)

	_, err = service.RespondToProposal(ctx, bobSession, proposal.ProposalID, model.ActionCancel)
	require.True(t, errors.Is(err, bartererrors.ErrNotProposer), "got: %v", err)

	cancelled, err := service.RespondToProposal(ctx, aliceSession, proposal.ProposalID, model.ActionCancel)
	require.NoError(t, err)
	require.Equal(t, model.StatusCancelled, cancelled.Status)

	_, err = service.RespondToProposal(ctx, bobSession, proposal.ProposalID, model.ActionAccept)
	require.True(t, errors.Is(err, bartererrors.ErrNotPending), "got: %v", err)
}

func TestLifecycle_CounterProposal(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := setupLifecycle(t, model.EquityVerdict{IsFair: true, DifferencePercentage: 8})

	original, err := service.SubmitProposal(ctx, aliceSession, potatoesForTomatoes())
	require.NoError(t, err)

	draft, err := service.CounterDraft(ctx, bobSession, original.ProposalID)
	require.NoError(t, err)
	draft.RequestedItems[0].Quantity.Amount = 15
	draft.Message = "make it 15 kg"

	updated, counter, err := service.CreateCounterProposal(ctx, bobSession, original.ProposalID, draft)
	require.NoError(t, err)

	require.Equal(t, model.StatusCountered, updated.Status)
	require.Equal(t, counter.ProposalID, updated.CounterProposalID)
	require.Equal(t, "bob", counter.ProposerID)
	require.Equal(t, "alice", counter.RecipientID)
	require.Equal(t, original.ProposalID, counter.ParentProposalID)
	require.Equal(t, "tomatoes", counter.OfferedItems[0].ProductID)
	require.Equal(t, model.Quantity{Amount: 15, Unit: "kg"}, counter.RequestedItems[0].Quantity)

	// both are visible to both parties
	for _, s := range []model.Session{aliceSession, bobSession} {
		list, err := service.ListProposals(ctx, s, "")
		require.NoError(t, err)
		require.Len(t, list, 2)
	}

	// the original cannot be countered or accepted again
	_, _, err = service.CreateCounterProposal(ctx, bobSession, original.ProposalID, draft)
	require.True(t, errors.Is(err, bartererrors.ErrNotPending), "got: %v", err)
	_, err = service.RespondToProposal(ctx, bobSession, original.ProposalID, model.ActionAccept)
	require.True(t, errors.Is(err, bartererrors.ErrStateConflict), "got: %v", err)

	// alice answers the counter
	accepted, err := service.RespondToProposal(ctx, aliceSession, counter.ProposalID, model.ActionAccept)
	require.NoError(t, err)
	require.Equal(t, model.StatusAccepted, accepted.Status)

	// the proposer may still withdraw the countered original; the counter is untouched
	cancelled, err := service.RespondToProposal(ctx, aliceSession, original.ProposalID, model.ActionCancel)
	require.NoError(t, err)
	require.Equal(t, model.StatusCancelled, cancelled.Status)

	stored, err := repo.GetProposal(ctx, counter.ProposalID)
	require.NoError(t, err)
	require.Equal(t, model.StatusAccepted, stored.Status)
}

func TestLifecycle_EquityThreshold(t *testing.T) {
	tests := []struct {
		name          string
		verdict       model.EquityVerdict
		expectedError error
	}{
		{
			name:          "fair_but_45_percent_apart",
			verdict:       model.EquityVerdict{IsFair: true, DifferencePercentage: 45},
			expectedError: bartererrors.ErrEquityThreshold,
		},
		{
			name:    "unfair_but_10_percent_apart",
			verdict: model.EquityVerdict{IsFair: false, DifferencePercentage: 10},
		},
		{
			name:    "exactly_40_percent",
			verdict: model.EquityVerdict{IsFair: true, DifferencePercentage: 40},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			service, repo, _ := setupLifecycle(t, tc.verdict)

			_, err := service.SubmitProposal(ctx, aliceSession, potatoesForTomatoes())
			list, listErr := repo.ListProposalsByUser(ctx, "alice")
			require.NoError(t, listErr)

			if tc.expectedError != nil {
				require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
				require.Empty(t, list, "a blocked proposal must not be stored")
				return
			}
			require.NoError(t, err)
			require.Len(t, list, 1)
		})
	}
}

func TestLifecycle_RejectedBeforeEvaluation(t *testing.T) {
	tests := []struct {
		name          string
		draft         model.ProposalDraft
		expectedError error
	}{
		{
			name: "self_trade",
			draft: model.ProposalDraft{
				RecipientID:    "alice",
				OfferedItems:   []model.BarterItem{item("potatoes", 1, "kg")},
				RequestedItems: []model.BarterItem{item("tomatoes", 1, "kg")},
			},
			expectedError: bartererrors.ErrSelfTrade,
		},
		{
			name: "nothing_requested",
			draft: model.ProposalDraft{
				RecipientID:  "bob",
				OfferedItems: []model.BarterItem{item("potatoes", 1, "kg")},
			},
			expectedError: bartererrors.ErrEmptySelection,
		},
		{
			name: "tractor_is_not_tradable",
			draft: model.ProposalDraft{
				RecipientID:    "bob",
				OfferedItems:   []model.BarterItem{item("potatoes", 1, "kg")},
				RequestedItems: []model.BarterItem{item("tractor", 1, "pcs")},
			},
			expectedError: bartererrors.ErrItemUnavailable,
		},
		{
			name: "unknown_product",
			draft: model.ProposalDraft{
				RecipientID:    "bob",
				OfferedItems:   []model.BarterItem{item("potatoes", 1, "kg")},
				RequestedItems: []model.BarterItem{item("truffles", 1, "g")},
			},
			expectedError: bartererrors.ErrNotFound,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			service, repo, evaluator := setupLifecycle(t, model.EquityVerdict{IsFair: true})

			_, err := service.SubmitProposal(context.Background(), aliceSession, tc.draft)
			require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
			require.Zero(t, evaluator.calls.Load())

			list, err := repo.ListProposalsByUser(context.Background(), "alice")
			require.NoError(t, err)
			require.Empty(t, list)
		})
	}
}

func TestLifecycle_MultiItemProposalEvaluatesLeadItems(t *testing.T) {
	service, _, evaluator := setupLifecycle(t, model.EquityVerdict{IsFair: true, DifferencePercentage: 3})

	draft := potatoesForTomatoes()
	draft.RequestedItems = append(draft.RequestedItems, item("onions", 2, "kg"))

	proposal, err := service.SubmitProposal(context.Background(), aliceSession, draft)
	require.NoError(t, err)
	require.Len(t, proposal.RequestedItems, 2)
	require.Equal(t, "Onions", proposal.RequestedItems[1].Name)
	require.Equal(t, int32(1), evaluator.calls.Load())
}

func TestLifecycle_ConcurrentAcceptAndCancel(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := setupLifecycle(t, model.EquityVerdict{IsFair: true})

	for round := 0; round < 20; round++ {
		proposal, err := service.SubmitProposal(ctx, aliceSession, potatoesForTomatoes())
		require.NoError(t, err)

		var wg sync.WaitGroup
		var acceptErr, cancelErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, acceptErr = service.RespondToProposal(ctx, bobSession, proposal.ProposalID, model.ActionAccept)
		}()
		go func() {
			defer wg.Done()
			_, cancelErr = service.RespondToProposal(ctx, aliceSession, proposal.ProposalID, model.ActionCancel)
		}()
		wg.Wait()

		// exactly one wins, the loser sees a state conflict
		require.True(t, (acceptErr == nil) != (cancelErr == nil), "accept: %v, cancel: %v", acceptErr, cancelErr)

		stored, err := repo.GetProposal(ctx, proposal.ProposalID)
		require.NoError(t, err)
		if acceptErr == nil {
			require.Equal(t, model.StatusAccepted, stored.Status)
			require.True(t, errors.Is(cancelErr, bartererrors.ErrStateConflict), "got: %v", cancelErr)
		} else {
			require.Equal(t, model.StatusCancelled, stored.Status)
			require.True(t, errors.Is(acceptErr, bartererrors.ErrStateConflict), "got: %v", acceptErr)
		}
	}
}
