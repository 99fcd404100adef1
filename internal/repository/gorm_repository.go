package repository

import (
	"barter-exchange/internal/bartererrors"
	model "barter-exchange/internal/models"
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	sideOffered   = "offered"
	sideRequested = "requested"
)

type productRecord struct {
	ID        string  `gorm:"primarykey;size:36"`
	OwnerID   string  `gorm:"size:64;index;not null"`
	Name      string  `gorm:"size:200;not null"`
	Price     float64 `gorm:"not null;default:0"`
	Stock     float64 `gorm:"not null;default:0"`
	Unit      string  `gorm:"size:32"`
	Tradable  bool    `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (productRecord) TableName() string {
	return "products"
}

type proposalRecord struct {
	ID                string               `gorm:"primarykey;size:36"`
	ProposerID        string               `gorm:"size:64;index;not null"`
	RecipientID       string               `gorm:"size:64;index;not null"`
	Status            string               `gorm:"size:16;index;not null"`
	Message           string               `gorm:"size:1000"`
	CounterProposalID string               `gorm:"size:36"`
	ParentProposalID  string               `gorm:"size:36;index"`
	Items             []proposalItemRecord `gorm:"foreignKey:ProposalID"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (proposalRecord) TableName() string {
	return "barter_proposals"
}

type proposalItemRecord struct {
	ID         uint    `gorm:"primarykey"`
	ProposalID string  `gorm:"size:36;index;not null"`
	Side       string  `gorm:"size:16;not null"`
	Position   int     `gorm:"not null"`
	ProductID  string  `gorm:"size:36;not null"`
	Name       string  `gorm:"size:200"`
	Amount     float64 `gorm:"not null"`
	Unit       string  `gorm:"size:32"`
}

func (proposalItemRecord) TableName() string {
	return "barter_proposal_items"
}

// OpenSQLite opens a SQLite database through gorm. gorm warnings go to logrus.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.New(log.StandardLogger(), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// every connection to ":memory:" is a separate database
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", path, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// GormRepo implements ProposalStore and Catalog on top of gorm
type GormRepo struct {
	db *gorm.DB
}

// NewGormRepo creates the repository and migrates its tables
func NewGormRepo(db *gorm.DB) (*GormRepo, error) {
	if err := db.AutoMigrate(&productRecord{}, &proposalRecord{}, &proposalItemRecord{}); err != nil {
		return nil, fmt.Errorf("migrate barter tables: %w", err)
	}
	return &GormRepo{db: db}, nil
}

// Close closes the underlying connection pool
func (r *GormRepo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateProposal stores a new proposal with its items
func (r *GormRepo) CreateProposal(ctx context.Context, proposal model.BarterProposal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createProposalTx(tx, proposal)
	})
}

func createProposalTx(tx *gorm.DB, proposal model.BarterProposal) error {
	if proposal.ProposalID == "" {
		return fmt.Errorf("create proposal: %w", bartererrors.ErrMissingField)
	}

	var count int64
	if err := tx.Model(&proposalRecord{}).Where("id = ?", proposal.ProposalID).Count(&count).Error; err != nil {
		return fmt.Errorf("create proposal %s: %w", proposal.ProposalID, err)
	}
	if count > 0 {
		return fmt.Errorf("create proposal %s: %w", proposal.ProposalID, bartererrors.ErrProposalExists)
	}

	rec := toProposalRecord(proposal)
	if err := tx.Create(&rec).Error; err != nil {
		return fmt.Errorf("create proposal %s: %w", proposal.ProposalID, err)
	}
	return nil
}

// GetProposal returns a proposal by id
func (r *GormRepo) GetProposal(ctx context.Context, proposalID string) (model.BarterProposal, error) {
	rec, err := findProposalTx(r.db.WithContext(ctx), proposalID)
	if err != nil {
		return model.BarterProposal{}, fmt.Errorf("get proposal %s: %w", proposalID, err)
	}
	return rec.toModel(), nil
}

func findProposalTx(tx *gorm.DB, proposalID string) (proposalRecord, error) {
	var rec proposalRecord
	err := tx.Preload("Items", orderItems).First(&rec, "id = ?", proposalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return proposalRecord{}, bartererrors.ErrProposalNotFound
	}
	return rec, err
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("side, position")
}

// ListProposalsByUser returns every proposal the user is party to, newest first
func (r *GormRepo) ListProposalsByUser(ctx context.Context, userID string) ([]model.BarterProposal, error) {
	var recs []proposalRecord
	err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		Where("proposer_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at desc").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list proposals for user %s: %w", userID, err)
	}

	proposals := make([]model.BarterProposal, 0, len(recs))
	for _, rec := range recs {
		proposals = append(proposals, rec.toModel())
	}
	return proposals, nil
}

// TransitionStatus performs a conditional update of the proposal status inside a transaction
func (r *GormRepo) TransitionStatus(ctx context.Context, proposalID string, from []model.ProposalStatus, to model.ProposalStatus) (model.BarterProposal, error) {
	var updated proposalRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&proposalRecord{}).
			Where("id = ? AND status IN ?", proposalID, statusStrings(from)).
			Updates(map[string]any{"status": string(to), "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			current, err := findProposalTx(tx, proposalID)
			if err != nil {
				return err
			}
			return fmt.Errorf("from %s to %s: %w", current.Status, to, bartererrors.ErrStateConflict)
		}

		var err error
		updated, err = findProposalTx(tx, proposalID)
		return err
	})
	if err != nil {
		return model.BarterProposal{}, fmt.Errorf("transition proposal %s: %w", proposalID, err)
	}
	return updated.toModel(), nil
}

// CreateCounterProposal counters a pending proposal in one transaction
func (r *GormRepo) CreateCounterProposal(ctx context.Context, originalID string, counter model.BarterProposal) (model.BarterProposal, error) {
	var original proposalRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&proposalRecord{}).
			Where("id = ? AND status = ?", originalID, string(model.StatusPending)).
			Updates(map[string]any{
				"status":              string(model.StatusCountered),
				"counter_proposal_id": counter.ProposalID,
				"updated_at":          time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			current, err := findProposalTx(tx, originalID)
			if err != nil {
				return err
			}
			return fmt.Errorf("in status %s: %w", current.Status, bartererrors.ErrNotPending)
		}

		if err := createProposalTx(tx, counter); err != nil {
			return err
		}

		var err error
		original, err = findProposalTx(tx, originalID)
		return err
	})
	if err != nil {
		return model.BarterProposal{}, fmt.Errorf("counter proposal %s: %w", originalID, err)
	}
	return original.toModel(), nil
}

// GetProduct returns a product by id
func (r *GormRepo) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	var rec productRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, bartererrors.ErrProductNotFound)
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, err)
	}
	return rec.toModel(), nil
}

// ListProducts returns the products matching filter ordered by id
func (r *GormRepo) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	q := r.db.WithContext(ctx).Model(&productRecord{})
	if filter.OwnerID != "" {
		q = q.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Tradable != nil {
		q = q.Where("tradable = ?", *filter.Tradable)
	}
	if filter.StockGreaterThan != nil {
		q = q.Where("stock > ?", *filter.StockGreaterThan)
	}

	var recs []productRecord
	if err := q.Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]model.Product, 0, len(recs))
	for _, rec := range recs {
		products = append(products, rec.toModel())
	}
	return products, nil
}

// AddProduct inserts or replaces a catalog product
func (r *GormRepo) AddProduct(ctx context.Context, product model.Product) error {
	rec := productRecord{
		ID:       product.ProductID,
		OwnerID:  product.OwnerID,
		Name:     product.Name,
		Price:    product.Price,
		Stock:    product.Stock,
		Unit:     product.Unit,
		Tradable: product.Tradable,
	}
	if err := r.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("add product %s: %w", product.ProductID, err)
	}
	return nil
}

func (rec productRecord) toModel() model.Product {
	return model.Product{
		ProductID: rec.ID,
		OwnerID:   rec.OwnerID,
		Name:      rec.Name,
		Price:     rec.Price,
		Stock:     rec.Stock,
		Unit:      rec.Unit,
		Tradable:  rec.Tradable,
	}
}

func toProposalRecord(p model.BarterProposal) proposalRecord {
	rec := proposalRecord{
		ID:                p.ProposalID,
		ProposerID:        p.ProposerID,
		RecipientID:       p.RecipientID,
		Status:            string(p.Status),
		Message:           p.Message,
		CounterProposalID: p.CounterProposalID,
		ParentProposalID:  p.ParentProposalID,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	rec.Items = append(rec.Items, toItemRecords(p.ProposalID, sideOffered, p.OfferedItems)...)
	rec.Items = append(rec.Items, toItemRecords(p.ProposalID, sideRequested, p.RequestedItems)...)
	return rec
}

func toItemRecords(proposalID, side string, items []model.BarterItem) []proposalItemRecord {
	recs := make([]proposalItemRecord, 0, len(items))
	for i, item := range items {
		recs = append(recs, proposalItemRecord{
			ProposalID: proposalID,
			Side:       side,
			Position:   i,
			ProductID:  item.ProductID,
			Name:       item.Name,
			Amount:     item.Quantity.Amount,
			Unit:       item.Quantity.Unit,
		})
	}
	return recs
}

func (rec proposalRecord) toModel() model.BarterProposal {
	p := model.BarterProposal{
		ProposalID:        rec.ID,
		ProposerID:        rec.ProposerID,
		RecipientID:       rec.RecipientID,
		Status:            model.ProposalStatus(rec.Status),
		Message:           rec.Message,
		CounterProposalID: rec.CounterProposalID,
		ParentProposalID:  rec.ParentProposalID,
		CreatedAt:         rec.CreatedAt.UTC(),
		UpdatedAt:         rec.UpdatedAt.UTC(),
		OfferedItems:      []model.BarterItem{},
		RequestedItems:    []model.BarterItem{},
	}

	for _, item := range rec.Items {
		bi := model.BarterItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  model.Quantity{Amount: item.Amount, Unit: item.Unit},
		}
		if item.Side == sideOffered {
			p.OfferedItems = append(p.OfferedItems, bi)
		} else {
			p.RequestedItems = append(p.RequestedItems, bi)
		}
	}
	return p
}

func statusStrings(statuses []model.ProposalStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
