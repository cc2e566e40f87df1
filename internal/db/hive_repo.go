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

// HiveRepository provides data access for the hives table, including the
// assessment summary written back after every analysis.
type HiveRepository struct {
	db DBTX
}

// NewHiveRepository creates a new HiveRepository.
func NewHiveRepository(db DBTX) *HiveRepository {
	return &HiveRepository{db: db}
}

const hiveColumns = `h.id, h.account_id, h.apiary_id, h.name, h.hive_type, h.frame_count, h.status,
	h.colony_established, h.queen_introduced,
	h.weighted_score, h.overall_risk_level, h.recommendations, h.next_inspection_date, h.last_inspected_at,
	h.created_at, h.updated_at`

func scanHive(row pgx.Row) (*types.Hive, error) {
	var h types.Hive
	var riskLevel *string
	err := row.Scan(
		&h.ID,
		&h.AccountID,
		&h.ApiaryID,
		&h.Name,
		&h.HiveType,
		&h.FrameCount,
		&h.Status,
		&h.ColonyEstablished,
		&h.QueenIntroduced,
		&h.WeightedScore,
		&riskLevel,
		&h.Recommendations,
		&h.NextInspectionDate,
		&h.LastInspectedAt,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if riskLevel != nil {
		h.OverallRiskLevel = types.RiskLevel(*riskLevel)
	}
	return &h, nil
}

// Create inserts a new hive. A missing apiary surfaces as ErrCodeNotFoundApiary.
func (r *HiveRepository) Create(ctx context.Context, h *types.Hive) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO hives (id, account_id, apiary_id, name, hive_type, frame_count, status,
			colony_established, queen_introduced, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, NOW()), COALESCE($11, NOW()))`,
		h.ID,
		h.AccountID,
		h.ApiaryID,
		h.Name,
		h.HiveType,
		h.FrameCount,
		h.Status,
		h.ColonyEstablished,
		h.QueenIntroduced,
		nilIfZeroTime(h.CreatedAt),
		nilIfZeroTime(h.UpdatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return types.NewAppError(types.ErrCodeNotFoundApiary, "apiary not found", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create hive", err)
	}
	return nil
}

// GetByID returns the hive or ErrCodeNotFoundHive.
func (r *HiveRepository) GetByID(ctx context.Context, id, accountID string) (*types.Hive, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+hiveColumns+`
		 FROM hives h
		 WHERE h.id = $1 AND h.account_id = $2 AND h.deleted_at IS NULL`,
		id, accountID,
	)
	h, err := scanHive(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundHive, "hive not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve hive", err)
	}
	return h, nil
}

// Update writes the descriptive fields of a hive. Assessment fields are only
// changed through UpdateAssessmentSummary.
func (r *HiveRepository) Update(ctx context.Context, h *types.Hive) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE hives SET
			apiary_id = $1,
			name = $2,
			hive_type = $3,
			frame_count = $4,
			status = $5,
			colony_established = $6,
			queen_introduced = $7,
			updated_at = NOW()
		 WHERE id = $8 AND account_id = $9 AND deleted_at IS NULL`,
		h.ApiaryID,
		h.Name,
		h.HiveType,
		h.FrameCount,
		h.Status,
		h.ColonyEstablished,
		h.QueenIntroduced,
		h.ID,
		h.AccountID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return types.NewAppError(types.ErrCodeNotFoundApiary, "apiary not found", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update hive", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundHive, "hive not found", nil)
	}
	return nil
}

// Delete soft-deletes a hive and archives it so the sweeper ignores it.
func (r *HiveRepository) Delete(ctx context.Context, id, accountID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE hives SET deleted_at = NOW(), status = 'archived', updated_at = NOW()
		 WHERE id = $1 AND account_id = $2 AND deleted_at IS NULL`,
		id, accountID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete hive", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundHive, "hive not found", nil)
	}
	return nil
}

// ListByApiary returns the hives of one apiary newest first with cursor pagination.
func (r *HiveRepository) ListByApiary(ctx context.Context, accountID, apiaryID string, params types.ListParams) ([]*types.Hive, types.PageInfo, error) {
	params = params.Normalize()

	conditions := []string{"h.account_id = $1", "h.apiary_id = $2", "h.deleted_at IS NULL"}
	args := []any{accountID, apiaryID}
	if params.Cursor != "" {
		cursor, err := parseCursor(params.Cursor)
		if err != nil {
			return nil, types.PageInfo{}, err
		}
		args = append(args, cursor)
		conditions = append(conditions, fmt.Sprintf("h.created_at < $%d", len(args)))
	}
	args = append(args, params.Limit+1)

	query := fmt.Sprintf(
		`SELECT %s FROM hives h WHERE %s ORDER BY h.created_at DESC LIMIT $%d`,
		hiveColumns, strings.Join(conditions, " AND "), len(args),
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "failed to list hives", err)
	}
	defer rows.Close()

	var results []*types.Hive
	for rows.Next() {
		h, scanErr := scanHive(rows)
		if scanErr != nil {
			return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "failed to scan hive row", scanErr)
		}
		results = append(results, h)
	}
	if err := rows.Err(); err != nil {
		return nil, types.PageInfo{}, types.NewAppError(types.ErrCodeInternalDB, "error iterating hive rows", err)
	}

	results, page := trimPage(results, params.Limit, func(h *types.Hive) time.Time { return h.CreatedAt })
	return results, page, nil
}

// UpdateAssessmentSummary writes the latest analysis onto the hive record.
// A summary older than the one already stored is ignored so a slow
// reassessment cannot overwrite a fresher inspection.
func (r *HiveRepository) UpdateAssessmentSummary(ctx context.Context, id, accountID string, sum types.AssessmentSummary) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE hives SET
			weighted_score = $1,
			overall_risk_level = $2,
			recommendations = $3,
			next_inspection_date = $4,
			last_inspected_at = $5,
			updated_at = NOW()
		 WHERE id = $6 AND account_id = $7 AND deleted_at IS NULL
		   AND (last_inspected_at IS NULL OR last_inspected_at <= $5)`,
		sum.WeightedScore,
		sum.OverallRiskLevel,
		sum.Recommendations,
		sum.NextInspectionDate,
		sum.InspectedAt,
		id,
		accountID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update hive assessment summary", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeConflictConcurrent, "hive missing or already holds a newer assessment", nil)
	}
	return nil
}

// ListDueForInspection returns active hives across all accounts whose next
// inspection date is before cutoff, most overdue first.
func (r *HiveRepository) ListDueForInspection(ctx context.Context, cutoff time.Time, limit int) ([]types.HiveRef, error) {
	rows, err := r.db.Query(ctx,
		`SELECT h.account_id, h.id
		 FROM hives h
		 WHERE h.status = 'active' AND h.deleted_at IS NULL
		   AND h.next_inspection_date IS NOT NULL AND h.next_inspection_date < $1
		 ORDER BY h.next_inspection_date ASC
		 LIMIT $2`,
		cutoff, limit,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list hives due for inspection", err)
	}
	defer rows.Close()

	var refs []types.HiveRef
	for rows.Next() {
		var ref types.HiveRef
		if err := rows.Scan(&ref.AccountID, &ref.HiveID); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan due hive row", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating due hive rows", err)
	}
	return refs, nil
}
