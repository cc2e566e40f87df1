package handlers

import (
	"context"
	"log/slog"
	"time"

	"hivewatch/internal/assessment"
	"hivewatch/internal/types"
)

// Analyzer runs the assessment engine. *assessment.Analyzer satisfies it.
type Analyzer interface {
	Analyze(in assessment.Input) *assessment.AnalysisResult
}

// HistoryReader loads prior scored inspections.
type HistoryReader interface {
	History(ctx context.Context, accountID, hiveID string, before time.Time, limit int) (types.HistorySeries, error)
}

// defaultHistoryDepth matches REASSESS_HISTORY_DEPTH's default.
const defaultHistoryDepth = 12

// engineRunner gathers the engine input for a hive and runs the analysis.
// Lookup failures degrade the input instead of failing the request: the
// engine treats missing history and location as unknown.
type engineRunner struct {
	apiaries     ApiaryLookup
	history      HistoryReader
	analyzer     Analyzer
	historyDepth int
	logger       *slog.Logger
}

func (e *engineRunner) run(ctx context.Context, hive *types.Hive, snapshot types.Snapshot, asOf time.Time) *assessment.AnalysisResult {
	apiary, err := e.apiaries.GetByID(ctx, hive.ApiaryID, hive.AccountID)
	if err != nil {
		e.logger.WarnContext(ctx, "assessing without apiary context",
			"hive_id", hive.ID,
			"apiary_id", hive.ApiaryID,
			"error", err,
		)
	}

	depth := e.historyDepth
	if depth <= 0 {
		depth = defaultHistoryDepth
	}
	history, err := e.history.History(ctx, hive.AccountID, hive.ID, asOf, depth)
	if err != nil {
		e.logger.WarnContext(ctx, "assessing without history",
			"hive_id", hive.ID,
			"error", err,
		)
	}

	return e.analyzer.Analyze(assessment.Input{
		HiveID:   hive.ID,
		Snapshot: snapshot,
		Context:  hive.Context(apiary, asOf),
		History:  history,
		Now:      asOf,
	})
}
