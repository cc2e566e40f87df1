package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/zstd"

	"hivewatch/internal/types"
)

// AssessmentRepository archives complete analyses. The result JSON is stored
// zstd-compressed in a bytea column; the score and risk level are kept in
// plain columns for querying.
type AssessmentRepository struct {
	db DBTX

	encoders sync.Pool
	decoders sync.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(db DBTX) *AssessmentRepository {
	return &AssessmentRepository{
		db: db,
		encoders: sync.Pool{
			New: func() any {
				e, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedDefault))
				if err != nil {
					panic(fmt.Sprintf("failed to create zstd encoder: %v", err))
				}
				return e
			},
		},
		decoders: sync.Pool{
			New: func() any {
				d, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
				if err != nil {
					panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
				}
				return d
			},
		},
	}
}

func (r *AssessmentRepository) compress(data []byte) []byte {
	enc := r.encoders.Get().(*zstd.Encoder)
	defer r.encoders.Put(enc)
	return enc.EncodeAll(data, make([]byte, 0, len(data)/4))
}

func (r *AssessmentRepository) decompress(data []byte) ([]byte, error) {
	dec := r.decoders.Get().(*zstd.Decoder)
	defer r.decoders.Put(dec)
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}
	return out, nil
}

// Create stores an assessment. Result must be valid JSON.
func (r *AssessmentRepository) Create(ctx context.Context, rec *types.AssessmentRecord) error {
	if !json.Valid(rec.Result) {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "assessment result is not valid JSON", nil)
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO assessments (id, account_id, hive_id, inspection_id, weighted_score,
			overall_risk_level, fallback, result_zstd, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))`,
		rec.ID,
		rec.AccountID,
		rec.HiveID,
		nilIfEmpty(rec.InspectionID),
		rec.WeightedScore,
		rec.OverallRiskLevel,
		rec.Fallback,
		r.compress(rec.Result),
		nilIfZeroTime(rec.CreatedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return types.NewAppError(types.ErrCodeNotFoundHive, "hive not found", err)
		}
		return types.NewAppError(types.ErrCodeInternalDB, "failed to store assessment", err)
	}
	return nil
}

// GetLatest returns the most recent assessment of a hive with its result
// decompressed.
func (r *AssessmentRepository) GetLatest(ctx context.Context, hiveID, accountID string) (*types.AssessmentRecord, error) {
	var rec types.AssessmentRecord
	var inspectionID *string
	var compressed []byte
	err := r.db.QueryRow(ctx,
		`SELECT id, account_id, hive_id, inspection_id, weighted_score, overall_risk_level,
			fallback, result_zstd, created_at
		 FROM assessments
		 WHERE hive_id = $1 AND account_id = $2
		 ORDER BY created_at DESC
		 LIMIT 1`,
		hiveID, accountID,
	).Scan(
		&rec.ID,
		&rec.AccountID,
		&rec.HiveID,
		&inspectionID,
		&rec.WeightedScore,
		&rec.OverallRiskLevel,
		&rec.Fallback,
		&compressed,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundAssessment, "hive has not been assessed", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve assessment", err)
	}
	if inspectionID != nil {
		rec.InspectionID = *inspectionID
	}

	raw, err := r.decompress(compressed)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalCorruptData, "stored assessment could not be decoded", err)
	}
	rec.Result = raw
	return &rec, nil
}
