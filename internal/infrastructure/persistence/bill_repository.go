package persistence

import (
	"context"

	"github.com/salesdesk/backend/internal/domain/billing"
	"github.com/salesdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBillRepository implements BillRepository using GORM. It embeds only
// the read-only generic repository: bills are written once, by Save, and
// never updated or deleted.
type GormBillRepository struct {
	*GormReadRepository[billing.Bill, models.BillModel]
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{
		GormReadRepository: NewGormReadRepository(
			db,
			(*models.BillModel).ToDomain,
			WithPreload("Lines"),
		),
		db: db,
	}
}

// Save persists the bill and its lines as one cascading insert and writes
// the store-assigned identities back into the domain entity.
func (r *GormBillRepository) Save(ctx context.Context, bill *billing.Bill) error {
	model := models.BillModelFromDomain(bill)
	if err := dbFromContext(ctx, r.db).Create(model).Error; err != nil {
		return classifyStoreError(err)
	}
	*bill = *model.ToDomain()
	return nil
}

var _ billing.BillRepository = (*GormBillRepository)(nil)
