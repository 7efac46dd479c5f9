package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/salesdesk/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes the repositories care about. Everything else
// in class 23 (or any other class) is an opaque database failure.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// classifyStoreError lifts a driver or gorm error into the domain error
// taxonomy. Errors that already carry a kind pass through unchanged, so a
// repository can classify defensively without double-wrapping.
//
// gorm's translated sentinels are checked first (TranslateError is on for
// the postgres dialector), then the raw pgconn error for paths gorm does
// not translate, such as raw-SQL updates.
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.Wrap(shared.KindDuplicate, "", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.Wrap(shared.KindForeignKey, "", err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.Wrap(shared.KindNotFound, "", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return shared.Wrap(shared.KindDuplicate, "", err).
				WithMeta("constraint", pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return shared.Wrap(shared.KindForeignKey, "", err).
				WithMeta("constraint", pgErr.ConstraintName)
		}
		return shared.Wrap(shared.KindDatabase, "", err).
			WithMeta("sqlstate", pgErr.Code)
	}

	return shared.Wrap(shared.KindDatabase, "", err)
}
