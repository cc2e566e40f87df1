package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hivewatch/internal/types"
)

func TestHiveRepository_Create_MissingApiary(t *testing.T) {
	db := new(mockDBTX)
	repo := NewHiveRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, &pgconn.PgError{Code: "23503", ConstraintName: "hives_apiary_id_fkey"})

	err := repo.Create(context.Background(), &types.Hive{ID: "hive_1", ApiaryID: "apy_gone"})
	requireAppCode(t, err, types.ErrCodeNotFoundApiary)
}

func TestHiveRepository_GetByID(t *testing.T) {
	db := new(mockDBTX)
	repo := NewHiveRepository(db)

	now := time.Now().UTC()
	score := 82
	risk := "medium"
	recs := types.RecommendationList{{Type: "general", Priority: types.RiskLow, Action: "Keep going"}}

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rowOf(
			"hive_1", "acct_1", "apy_1", "Hive One", types.HiveLangstroth, 10, types.HiveStatusActive,
			nil, nil,
			&score, &risk, recs, &now, &now,
			now, now,
		))

	h, err := repo.GetByID(context.Background(), "hive_1", "acct_1")
	require.NoError(t, err)
	assert.Equal(t, "Hive One", h.Name)
	require.NotNil(t, h.WeightedScore)
	assert.Equal(t, 82, *h.WeightedScore)
	assert.Equal(t, types.RiskMedium, h.OverallRiskLevel)
	assert.Equal(t, recs, h.Recommendations)
}

func TestHiveRepository_GetByID_NeverAssessed(t *testing.T) {
	db := new(mockDBTX)
	repo := NewHiveRepository(db)
	now := time.Now().UTC()

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rowOf(
			"hive_1", "acct_1", "apy_1", "Hive One", types.HiveWarre, 8, types.HiveStatusActive,
			nil, nil,
			nil, nil, nil, nil, nil,
			now, now,
		))

	h, err := repo.GetByID(context.Background(), "hive_1", "acct_1")
	require.NoError(t, err)
	assert.Nil(t, h.WeightedScore)
	assert.Empty(t, h.OverallRiskLevel)
	assert.Nil(t, h.LastInspectedAt)
}

func TestHiveRepository_Delete_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewHiveRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := repo.Delete(context.Background(), "hive_1", "acct_1")
	requireAppCode(t, err, types.ErrCodeNotFoundHive)
}

func TestHiveRepository_UpdateAssessmentSummary(t *testing.T) {
	inspected := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	sum := types.AssessmentSummary{
		WeightedScore:      71,
		OverallRiskLevel:   types.RiskHigh,
		NextInspectionDate: inspected.AddDate(0, 0, 7),
		InspectedAt:        inspected,
	}

	t.Run("writes summary", func(t *testing.T) {
		db := new(mockDBTX)
		repo := NewHiveRepository(db)
		db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
			Run(func(args mock.Arguments) {
				a := execArgs(args)
				assert.Equal(t, 71, a[0])
				assert.Equal(t, types.RiskHigh, a[1])
				assert.Equal(t, inspected, a[4])
				assert.Contains(t, args.Get(1).(string), "last_inspected_at <= $5")
			}).
			Return(pgconn.NewCommandTag("UPDATE 1"), nil)

		require.NoError(t, repo.UpdateAssessmentSummary(context.Background(), "hive_1", "acct_1", sum))
	})

	t.Run("newer summary already stored", func(t *testing.T) {
		db := new(mockDBTX)
		repo := NewHiveRepository(db)
		db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
			Return(pgconn.NewCommandTag("UPDATE 0"), nil)

		err := repo.UpdateAssessmentSummary(context.Background(), "hive_1", "acct_1", sum)
		requireAppCode(t, err, types.ErrCodeConflictConcurrent)
	})
}

func TestHiveRepository_ListDueForInspection(t *testing.T) {
	db := new(mockDBTX)
	repo := NewHiveRepository(db)
	cutoff := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), []any{cutoff, 50}).
		Return(newMockRows([][]any{
			{"acct_1", "hive_1"},
			{"acct_2", "hive_9"},
		}), nil)

	refs, err := repo.ListDueForInspection(context.Background(), cutoff, 50)
	require.NoError(t, err)
	assert.Equal(t, []types.HiveRef{
		{AccountID: "acct_1", HiveID: "hive_1"},
		{AccountID: "acct_2", HiveID: "hive_9"},
	}, refs)
	db.AssertExpectations(t)
}

func TestHiveRepository_ListDueForInspection_IterationError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewHiveRepository(db)

	rows := newMockRows(nil)
	rows.errVal = errors.New("conn reset")
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	_, err := repo.ListDueForInspection(context.Background(), time.Now(), 10)
	requireAppCode(t, err, types.ErrCodeInternalDB)
}
