package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SRG1996AP/productivity-tracker/internal/domain"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// mapError translates driver errors into domain sentinels so callers never
// depend on pgx directly.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrDuplicateName)
		case foreignKeyViolation:
			return fmt.Errorf("%s: blocked by %s: %w", op, pgErr.ConstraintName, domain.ErrInUse)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
