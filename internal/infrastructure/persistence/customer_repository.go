package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/salesdesk/backend/internal/domain/partner"
	"github.com/salesdesk/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	*GormRepository[partner.Customer, models.CustomerModel]
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{
		GormRepository: NewGormRepository(
			db,
			(*models.CustomerModel).ToDomain,
			models.CustomerModelFromDomain,
		),
		db: db,
	}
}

// FindByEmail finds a customer by email. The domain stores emails
// lower-cased, so the lookup lower-cases too.
// Absence is reported as (nil, nil), not as an error.
func (r *GormCustomerRepository) FindByEmail(ctx context.Context, email string) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := dbFromContext(ctx, r.db).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classifyStoreError(err)
	}
	return model.ToDomain(), nil
}

var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
