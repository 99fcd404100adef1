package repository

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

import (
	"barter-exchange/internal/bartererrors"
	model "barter-exchange/internal/models"
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"
)

// ProposalStore is the system of record for barter proposals. Implementations
// apply every mutation atomically per proposal.
type ProposalStore interface {
	CreateProposal(ctx context.Context, proposal model.BarterProposal) error
	GetProposal(ctx context.Context, proposalID string) (model.BarterProposal, error)
	ListProposalsByUser(ctx context.Context, userID string) ([]model.BarterProposal, error)
	// TransitionStatus moves the proposal to `to` only if its current status is one of `from`.
	TransitionStatus(ctx context.Context, proposalID string, from []model.ProposalStatus, to model.ProposalStatus) (model.BarterProposal, error)
	// CreateCounterProposal marks a pending original as countered, links it to counter and
	// stores counter, all or nothing. It returns the updated original.
	CreateCounterProposal(ctx context.Context, originalID string, counter model.BarterProposal) (model.BarterProposal, error)
}

// Catalog is read access to products
type Catalog interface {
	GetProduct(ctx context.Context, productID string) (model.Product, error)
	ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of ProposalStore and Catalog
type MemoryRepo struct {
	mu        sync.RWMutex
	proposals map[string]model.BarterProposal // key: proposalID -> value: proposal
	userIndex map[string][]string             // key: userID -> value: ids of proposals the user is party to
	products  map[string]model.Product        // key: productID -> value: product
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		proposals: make(map[string]model.BarterProposal),
		userIndex: make(map[string][]string),
		products:  make(map[string]model.Product),
	}
}

// CreateProposal stores a new proposal
func (r *MemoryRepo) CreateProposal(ctx context.Context, proposal model.BarterProposal) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertLocked(proposal)
}

func (r *MemoryRepo) insertLocked(proposal model.BarterProposal) error {
	if proposal.ProposalID == "" {
		return fmt.Errorf("create proposal: %w", bartererrors.ErrMissingField)
	}
	if _, ok := r.proposals[proposal.ProposalID]; ok {
		return fmt.Errorf("create proposal %s: %w", proposal.ProposalID, bartererrors.ErrProposalExists)
	}

	r.proposals[proposal.ProposalID] = proposal.Clone()
	r.userIndex[proposal.ProposerID] = append(r.userIndex[proposal.ProposerID], proposal.ProposalID)
	if proposal.RecipientID != proposal.ProposerID {
		r.userIndex[proposal.RecipientID] = append(r.userIndex[proposal.RecipientID], proposal.ProposalID)
	}
	return nil
}

// GetProposal returns a proposal by id
func (r *MemoryRepo) GetProposal(ctx context.Context, proposalID string) (model.BarterProposal, error) {
	if err := ctx.Err(); err != nil {
		return model.BarterProposal{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.proposals[proposalID]
	if !ok {
		return model.BarterProposal{}, fmt.Errorf("get proposal %s: %w", proposalID, bartererrors.ErrProposalNotFound)
	}
	return p.Clone(), nil
}

// ListProposalsByUser returns every proposal the user is party to, newest first
func (r *MemoryRepo) ListProposalsByUser(ctx context.Context, userID string) ([]model.BarterProposal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.userIndex[userID]
	proposals := make([]model.BarterProposal, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.proposals[id]; ok {
			proposals = append(proposals, p.Clone())
		}
	}

	sort.SliceStable(proposals, func(i, j int) bool {
		return proposals[i].CreatedAt.After(proposals[j].CreatedAt)
	})
	return proposals, nil
}

// TransitionStatus performs a compare-and-set on the proposal status
func (r *MemoryRepo) TransitionStatus(ctx context.Context, proposalID string, from []model.ProposalStatus, to model.ProposalStatus) (model.BarterProposal, error) {
	if err := ctx.Err(); err != nil {
		return model.BarterProposal{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.proposals[proposalID]
	if !ok {
		return model.BarterProposal{}, fmt.Errorf("transition proposal %s: %w", proposalID, bartererrors.ErrProposalNotFound)
	}
	if !slices.Contains(from, p.Status) {
		return model.BarterProposal{}, fmt.Errorf("transition proposal %s from %s to %s: %w", proposalID, p.Status, to, bartererrors.ErrStateConflict)
	}

	p.Status = to
	p.UpdatedAt = time.Now().UTC()
	r.proposals[proposalID] = p
	return p.Clone(), nil
}

// CreateCounterProposal counters a pending proposal
func (r *MemoryRepo) CreateCounterProposal(ctx context.Context, originalID string, counter model.BarterProposal) (model.BarterProposal, error) {
	if err := ctx.Err(); err != nil {
		return model.BarterProposal{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	original, ok := r.proposals[originalID]
	if !ok {
		return model.BarterProposal{}, fmt.Errorf("counter proposal %s: %w", originalID, bartererrors.ErrProposalNotFound)
	}
	if original.Status != model.StatusPending {
		return model.BarterProposal{}, fmt.Errorf("counter proposal %s in status %s: %w", originalID, original.Status, bartererrors.ErrNotPending)
	}

	if err := r.insertLocked(counter); err != nil {
		return model.BarterProposal{}, fmt.Errorf("counter proposal %s: %w", originalID, err)
	}

	original.Status = model.StatusCountered
	original.CounterProposalID = counter.ProposalID
	original.UpdatedAt = time.Now().UTC()
	r.proposals[originalID] = original
	return original.Clone(), nil
}

// GetProduct returns a product by id
func (r *MemoryRepo) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	if err := ctx.Err(); err != nil {
		return model.Product{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[productID]
	if !ok {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, bartererrors.ErrProductNotFound)
	}
	return p, nil
}

// ListProducts returns the products matching filter ordered by id
func (r *MemoryRepo) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]model.Product, 0)
	for _, p := range r.products {
		if filter.Matches(p) {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ProductID < products[j].ProductID })
	return products, nil
}

// AddProduct adds or replaces a catalog product. Used for seeding and tests.
func (r *MemoryRepo) AddProduct(product model.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ProductID] = product
}
