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

// InspectionRepository provides data access for the inspections table. The
// snapshot is stored as JSONB.
type InspectionRepository struct {
	db DBTX
}

// NewInspectionRepository creates a new InspectionRepository.
func NewInspectionRepository(db DBTX) *InspectionRepository {
	return &InspectionRepository{db: db}
}

const inspectionColumns = `i.id, i.account_id, i.hive_id, i.inspected_at, i.snapshot,
	i.swarming_observed, i.composite_score, i.created_at`

func scanInspection(row pgx.Row) (*types.Inspection, error) {
	var in types.Inspection
	err := row.Scan(
		&in.ID,
		&in.AccountID,
		&in.HiveID,
		&in.InspectedAt,
		&in.Snapshot,
		&in.SwarmingObserved,
		&in.CompositeScore,
		&in.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// Create inserts an inspection. CompositeScore is nil when the analysis fell
// back, so only real scores feed later trend analysis.
func (r *InspectionRepository) Create(ctx context.Context, in *types.Inspection) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO inspections (id, account_id, hive_id, inspected_at, snapshot,
			swarming_observed, composite_score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))`,
		in.ID,
		in.AccountID,
		in.HiveID,
		in.InspectedAt,
		in.Snapshot,
		in.SwarmingObserved,
		in.CompositeScore,
		nilIfZeroTime(in.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return types.NewAppError(types.ErrCodeNotFoundHive, "hive not found", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create inspection", err)
	}
	return nil
}

// GetLatest returns the most recent inspection of a hive.
func (r *InspectionRepository) GetLatest(ctx context.Context, hiveID, accountID string) (*types.Inspection, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+inspectionColumns+`
		 FROM inspections i
		 WHERE i.hive_id = $1 AND i.account_id = $2
		 ORDER BY i.inspected_at DESC
		 LIMIT 1`,
		hiveID, accountID,
	)
	in, err := scanInspection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundInspection, "hive has no inspections", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve latest inspection", err)
	}
	return in, nil
}

// List returns a hive's inspections newest first. The cursor is the
// inspected_at of the last row of the previous page.
func (r *InspectionRepository) List(ctx context.Context, accountID, hiveID string, params types.ListParams) ([]*types.Inspection, types.PageInfo, error) {
	params = params.Normalize()

	conditions := []string{"i.account_id = $1", "i.hive_id = $2"}
	args := []any{accountID, hiveID}
	if params.Cursor != "" {
		cursor, err := parseCursor(params.Cursor)
		if err != nil {
			return nil, types.PageInfo{}, err
		}
		args = append(args, cursor)
		conditions = append(conditions, fmt.Sprintf("i.inspected_at < $%d", len(args)))
	}
	args = append(args, params.Limit+1)

	query := fmt.Sprintf(
		`SELECT %s FROM inspections i WHERE %s ORDER BY i.inspected_at DESC LIMIT $%d`,
		inspectionColumns, strings.Join(conditions, " AND "), len(args),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "failed to list inspections", err)
	}
	defer rows.Close()

	var results []*types.Inspection
	for rows.Next() {
		in, scanErr := scanInspection(rows)
		if scanErr != nil {
			return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "failed to scan inspection row", scanErr)
		}
		results = append(results, in)
	}
	if err := rows.Err(); err != nil {
		return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "error iterating inspection rows", err)
	}

	results, page := trimPage(results, params.Limit, func(in *types.Inspection) time.Time { return in.InspectedAt })
	return results, page, nil
}

// History returns up to limit scored inspections taken strictly before
// before, newest first.
func (r *InspectionRepository) History(ctx context.Context, accountID, hiveID string, before time.Time, limit int) (types.HistorySeries, error) {
	rows, err := r.db.Query(ctx,
		`SELECT i.inspected_at, i.composite_score, i.swarming_observed
		 FROM inspections i
		 WHERE i.account_id = $1 AND i.hive_id = $2
		   AND i.inspected_at < $3 AND i.composite_score IS NOT NULL
		 ORDER BY i.inspected_at DESC
		 LIMIT $4`,
		accountID, hiveID, before, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load inspection history", err)
	}
	defer rows.Close()

	history := types.HistorySeries{}
	for rows.Next() {
		var p types.HistoryPoint
		var score int
		if err := rows.Scan(&p.Date, &score, &p.SwarmingObserved); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan history row", err)
		}
		p.CompositeScore = float64(score)
		history = append(history, p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating history rows", err)
	}
	return history, nil
}
