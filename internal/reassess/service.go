package reassess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"hivewatch/internal/assessment"
	"hivewatch/internal/config"
	notifcore "hivewatch/internal/notifications/core"
	"hivewatch/internal/types"
)

// HiveReader loads hives.
type HiveReader interface {
	GetByID(ctx context.Context, id, accountID string) (*types.Hive, error)
}

// ApiaryReader loads apiaries.
type ApiaryReader interface {
	GetByID(ctx context.Context, id, accountID string) (*types.Apiary, error)
}

// InspectionReader loads the inspection and history a reassessment runs on.
type InspectionReader interface {
	GetLatest(ctx context.Context, hiveID, accountID string) (*types.Inspection, error)
	History(ctx context.Context, accountID, hiveID string, before time.Time, limit int) (types.HistorySeries, error)
}

// Result summarizes one ReassessMessage. Failed maps hive IDs to the error
// that stopped them.
type Result struct {
	Assessed int
	Skipped  int
	Failed   map[string]error
}

// Service re-runs the engine for batches of hives.
type Service struct {
	hives       HiveReader
	apiaries    ApiaryReader
	inspections InspectionReader
	analyzer    *assessment.Analyzer
	recorder    *Recorder
	metrics     notifcore.AssessmentMetrics
	clock       types.Clock
	cfg         config.ReassessConfig
	logger      *slog.Logger
}

// NewService creates a Service.
func NewService(
	hives HiveReader,
	apiaries ApiaryReader,
	inspections InspectionReader,
	analyzer *assessment.Analyzer,
	recorder *Recorder,
	metrics notifcore.AssessmentMetrics,
	clock types.Clock,
	cfg config.ReassessConfig,
	logger *slog.Logger,
) *Service {
	if metrics == nil {
		metrics = notifcore.NopMetrics{}
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.HistoryDepth < 1 {
		cfg.HistoryDepth = 12
	}
	return &Service{
		hives:       hives,
		apiaries:    apiaries,
		inspections: inspections,
		analyzer:    analyzer,
		recorder:    recorder,
		metrics:     metrics,
		clock:       clock,
		cfg:         cfg,
		logger:      logger,
	}
}

// errNoInspection marks a hive that has never been inspected.
var errNoInspection = errors.New("hive has no inspections")

// HandleMessage reassesses every hive in msg with at most cfg.Concurrency in
// flight. A failing hive never stops the others; failures are reported in
// the Result. Hives without inspections are skipped.
func (s *Service) HandleMessage(ctx context.Context, msg types.ReassessMessage) Result {
	res := Result{Failed: make(map[string]error)}
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, ref := range msg.Hives {
		g.Go(func() error {
			err := s.Reassess(gCtx, ref)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.Assessed++
			case errors.Is(err, errNoInspection):
				res.Skipped++
			default:
				res.Failed[ref.HiveID] = err
				s.logger.ErrorContext(gCtx, "reassessment failed",
					slog.String("hive_id", ref.HiveID),
					slog.String("account_id", ref.AccountID),
					slog.String("error", err.Error()),
				)
			}
			// Errors stay per-hive so siblings keep running.
			return nil
		})
	}
	_ = g.Wait()

	s.metrics.RecordHivesReassessed(ctx, msg.Reason, res.Assessed)
	s.logger.InfoContext(ctx, "reassessment batch complete",
		slog.String("reason", msg.Reason),
		slog.Int("requested", len(msg.Hives)),
		slog.Int("assessed", res.Assessed),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", len(res.Failed)),
	)
	return res
}

// Reassess runs the engine for one hive against its latest inspection, as
// of the current time.
func (s *Service) Reassess(ctx context.Context, ref types.HiveRef) error {
	hive, err := s.hives.GetByID(ctx, ref.HiveID, ref.AccountID)
	if err != nil {
		return fmt.Errorf("loading hive: %w", err)
	}

	latest, err := s.inspections.GetLatest(ctx, hive.ID, hive.AccountID)
	if err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) && appErr.Code == types.ErrCodeNotFoundInspection {
			return errNoInspection
		}
		return fmt.Errorf("loading latest inspection: %w", err)
	}

	history, err := s.inspections.History(ctx, hive.AccountID, hive.ID, latest.InspectedAt, s.cfg.HistoryDepth)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	apiary, err := s.apiaries.GetByID(ctx, hive.ApiaryID, hive.AccountID)
	if err != nil {
		return fmt.Errorf("loading apiary: %w", err)
	}

	now := s.clock.Now().UTC()
	result := s.analyzer.Analyze(assessment.Input{
		HiveID:   hive.ID,
		Snapshot: latest.Snapshot,
		Context:  hive.Context(apiary, now),
		History:  history,
		Now:      now,
	})

	if _, err := s.recorder.Record(ctx, hive, latest, result); err != nil {
		return err
	}
	return nil
}
