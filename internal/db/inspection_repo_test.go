package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hivewatch/internal/types"
)

func TestInspectionRepository_Create_MissingHive(t *testing.T) {
	db := new(mockDBTX)
	repo := NewInspectionRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, &pgconn.PgError{Code: "23503"})

	err := repo.Create(context.Background(), &types.Inspection{ID: "insp_1", HiveID: "hive_gone"})
	requireAppCode(t, err, types.ErrCodeNotFoundHive)
}

func TestInspectionRepository_Create_FallbackStoresNullScore(t *testing.T) {
	db := new(mockDBTX)
	repo := NewInspectionRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			assert.Nil(t, execArgs(args)[6])
		}).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	err := repo.Create(context.Background(), &types.Inspection{
		ID:          "insp_1",
		AccountID:   "acct_1",
		HiveID:      "hive_1",
		InspectedAt: time.Now(),
		Snapshot:    types.Snapshot{QueenPresent: types.QueenPresent},
	})
	require.NoError(t, err)
}

func TestInspectionRepository_GetLatest_NoInspections(t *testing.T) {
	db := new(mockDBTX)
	repo := NewInspectionRepository(db)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	_, err := repo.GetLatest(context.Background(), "hive_1", "acct_1")
	requireAppCode(t, err, types.ErrCodeNotFoundInspection)
}

func TestInspectionRepository_List_CursorIsInspectedAt(t *testing.T) {
	db := new(mockDBTX)
	repo := NewInspectionRepository(db)

	inspected := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	created := inspected.Add(48 * time.Hour)
	row := func(id string, at time.Time) []any {
		return []any{id, "acct_1", "hive_1", at, types.Snapshot{}, false, nil, created}
	}

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(newMockRows([][]any{
			row("insp_2", inspected),
			row("insp_1", inspected.AddDate(0, 0, -7)),
		}), nil)

	got, page, err := repo.List(context.Background(), "acct_1", "hive_1", types.ListParams{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "insp_2", got[0].ID)
	assert.Equal(t, inspected.Format(time.RFC3339Nano), page.NextCursor)
}

func TestInspectionRepository_History(t *testing.T) {
	db := new(mockDBTX)
	repo := NewInspectionRepository(db)

	before := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	d1 := before.AddDate(0, 0, -7)
	d2 := before.AddDate(0, 0, -14)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), []any{"acct_1", "hive_1", before, 12}).
		Return(newMockRows([][]any{
			{d1, 74, true},
			{d2, 80, false},
		}), nil)

	h, err := repo.History(context.Background(), "acct_1", "hive_1", before, 12)
	require.NoError(t, err)
	assert.Equal(t, types.HistorySeries{
		{Date: d1, CompositeScore: 74, SwarmingObserved: true},
		{Date: d2, CompositeScore: 80},
	}, h)
}

func TestInspectionRepository_History_Empty(t *testing.T) {
	db := new(mockDBTX)
	repo := NewInspectionRepository(db)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(newMockRows(nil), nil)

	h, err := repo.History(context.Background(), "acct_1", "hive_1", time.Now(), 12)
	require.NoError(t, err)
	assert.NotNil(t, h)
	assert.Empty(t, h)
}
