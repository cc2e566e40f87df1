package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"hivewatch/internal/types"
)

// ApiaryRepository provides data access for the apiaries table. Every query is
// scoped to an account and excludes soft-deleted rows.
type ApiaryRepository struct {
	db DBTX
}

// NewApiaryRepository creates a new ApiaryRepository.
func NewApiaryRepository(db DBTX) *ApiaryRepository {
	return &ApiaryRepository{db: db}
}

// hive_count is derived so it never drifts from the hives table.
const apiaryColumns = `a.id, a.account_id, a.name, a.location, a.latitude, a.longitude, a.notes,
	(SELECT COUNT(*) FROM hives h WHERE h.apiary_id = a.id AND h.deleted_at IS NULL),
	a.created_at, a.updated_at`

func scanApiary(row pgx.Row) (*types.Apiary, error) {
	var a types.Apiary
	var location, notes *string
	err := row.Scan(
		&a.ID,
		&a.AccountID,
		&a.Name,
		&location,
		&a.Latitude,
		&a.Longitude,
		&notes,
		&a.HiveCount,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if location != nil {
		a.Location = *location
	}
	if notes != nil {
		a.Notes = *notes
	}
	return &a, nil
}

// Create inserts a new apiary. The caller sets ID and AccountID.
func (r *ApiaryRepository) Create(ctx context.Context, a *types.Apiary) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO apiaries (id, account_id, name, location, latitude, longitude, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()), COALESCE($9, NOW()))`,
		a.ID,
		a.AccountID,
		a.Name,
		nilIfEmpty(a.Location),
		a.Latitude,
		a.Longitude,
		nilIfEmpty(a.Notes),
		nilIfZeroTime(a.CreatedAt),
		nilIfZeroTime(a.UpdatedAt),
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create apiary", err)
	}
	return nil
}

// GetByID returns the apiary or ErrCodeNotFoundApiary.
func (r *ApiaryRepository) GetByID(ctx context.Context, id, accountID string) (*types.Apiary, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+apiaryColumns+`
		 FROM apiaries a
		 WHERE a.id = $1 AND a.account_id = $2 AND a.deleted_at IS NULL`,
		id, accountID,
	)
	a, err := scanApiary(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundApiary, "apiary not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve apiary", err)
	}
	return a, nil
}

// Update writes the mutable fields of an apiary.
func (r *ApiaryRepository) Update(ctx context.Context, a *types.Apiary) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE apiaries SET
			name = $1,
			location = $2,
			latitude = $3,
			longitude = $4,
			notes = $5,
			updated_at = NOW()
		 WHERE id = $6 AND account_id = $7 AND deleted_at IS NULL`,
		a.Name,
		nilIfEmpty(a.Location),
		a.Latitude,
		a.Longitude,
		nilIfEmpty(a.Notes),
		a.ID,
		a.AccountID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update apiary", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundApiary, "apiary not found", nil)
	}
	return nil
}

// Delete soft-deletes an apiary. An apiary that still holds live hives is
// rejected with ErrCodeConflictApiaryNotEmpty.
func (r *ApiaryRepository) Delete(ctx context.Context, id, accountID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE apiaries SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND account_id = $2 AND deleted_at IS NULL
		   AND NOT EXISTS (SELECT 1 FROM hives h WHERE h.apiary_id = $1 AND h.deleted_at IS NULL)`,
		id, accountID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete apiary", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing changed: either the apiary is missing or it still has hives.
	a, err := r.GetByID(ctx, id, accountID)
	if err != nil {
		return err
	}
	return types.NewAppErrorWithDetails(
		types.ErrCodeConflictApiaryNotEmpty,
		"apiary still contains hives; move or delete them first",
		nil,
		map[string]any{"hive_count": a.HiveCount},
	)
}

// List returns the account's apiaries newest first with cursor pagination.
func (r *ApiaryRepository) List(ctx context.Context, accountID string, params types.ListParams) ([]*types.Apiary, types.PageInfo, error) {
	params = params.Normalize()

	conditions := []string{"a.account_id = $1", "a.deleted_at IS NULL"}
	args := []any{accountID}
	if params.Cursor != "" {
		cursor, err := parseCursor(params.Cursor)
		if err != nil {
			return nil, types.PageInfo{}, err
		}
		args = append(args, cursor)
		conditions = append(conditions, fmt.Sprintf("a.created_at < $%d", len(args)))
	}
	args = append(args, params.Limit+1)

	query := fmt.Sprintf(
		`SELECT %s FROM apiaries a WHERE %s ORDER BY a.created_at DESC LIMIT $%d`,
		apiaryColumns, strings.Join(conditions, " AND "), len(args),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "failed to list apiaries", err)
	}
	defer rows.Close()

	var results []*types.Apiary
	for rows.Next() {
		a, scanErr := scanApiary(rows)
		if scanErr != nil {
			return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "failed to scan apiary row", scanErr)
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "error iterating apiary rows", err)
	}

	results, page := trimPage(results, params.Limit, func(a *types.Apiary) time.Time { return a.CreatedAt })
	return results, page, nil
}
