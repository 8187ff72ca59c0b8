// Package service implements the batch dispatcher: it selects the scan
// machine for a batch's type, runs it inside one transactional unit of work,
// and converts the outcome into the batch's persisted log and processed flag.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"artshow/internal/batch"
	"artshow/internal/batch/metrics"
	"artshow/internal/scan"
	dErrors "artshow/pkg/domain-errors"
	"artshow/pkg/platform/sentinel"
)

// Tx runs fn against a transaction-scoped show store; mutations are
// committed only when fn returns nil.
type Tx interface {
	RunInTx(ctx context.Context, fn func(store scan.Store) error) error
}

// Locker serializes scan runs so two batches never race on the same pieces.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// Publisher announces a successfully processed batch to downstream
// consumers (reporting, cashier screens).
type Publisher interface {
	BatchProcessed(ctx context.Context, scan *batch.BatchScan) error
}

// Timestamps in processing logs; the log is free text read by humans.
const logTimeFormat = "2006-01-02 15:04:05"

const (
	outcomeComplete         = "complete"
	outcomeFailed           = "failed"
	outcomeAlreadyProcessed = "already_processed"
	outcomeUnknownType      = "unknown_batchtype"
)

// errAlreadyProcessed signals that a concurrent run committed the batch
// between the dispatch gate and lock acquisition.
var errAlreadyProcessed = errors.New("batch already processed")

// Service is the batch dispatcher.
type Service struct {
	batches batch.Store
	tx      Tx
	locker  Locker
	events  Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	clock   func() time.Time
	tracer  trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLocker(locker Locker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

func WithEvents(events Publisher) Option {
	return func(s *Service) {
		s.events = events
	}
}

// WithClock sets the time source for log timestamps, for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs the dispatcher. batches and tx are required; everything
// else is optional.
func New(batches batch.Store, tx Tx, opts ...Option) (*Service, error) {
	if batches == nil {
		return nil, fmt.Errorf("batch store is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	svc := &Service{
		batches: batches,
		tx:      tx,
		logger:  slog.Default(),
		clock:   time.Now,
		tracer:  otel.Tracer("artshow/batch"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Submit records a new unprocessed batch.
func (s *Service) Submit(ctx context.Context, batchType batch.BatchType, data string) (*batch.BatchScan, error) {
	if !batchType.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown batch type "+string(batchType))
	}
	if strings.TrimSpace(data) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "batch data must not be empty")
	}
	now := s.clock()
	scanBatch := &batch.BatchScan{
		ID:        uuid.New(),
		BatchType: batchType,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.batches.Create(ctx, scanBatch); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store batch")
	}
	s.logger.InfoContext(ctx, "batch submitted",
		"batch_id", scanBatch.ID,
		"batchtype", scanBatch.BatchType,
	)
	return scanBatch, nil
}

// Get returns one batch.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*batch.BatchScan, error) {
	scanBatch, err := s.batches.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "batch not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load batch")
	}
	return scanBatch, nil
}

// List returns all batches in submission order.
func (s *Service) List(ctx context.Context) ([]*batch.BatchScan, error) {
	batches, err := s.batches.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list batches")
	}
	return batches, nil
}

// Process runs the batch through its scan machine and persists the outcome.
// A scan full of diagnostics is a normal outcome (logged, processed stays
// false), not an error return; only infrastructure failures surface as
// errors, and those leave the batch record untouched.
func (s *Service) Process(ctx context.Context, id uuid.UUID) (*batch.BatchScan, error) {
	ctx, span := s.tracer.Start(ctx, "batch.process",
		trace.WithAttributes(attribute.String("batch.id", id.String())))
	defer span.End()

	scanBatch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("batch.type", string(scanBatch.BatchType)))

	start := s.clock()
	stamp := start.Format(logTimeFormat)
	outcome := outcomeComplete

	switch {
	case scanBatch.Processed:
		scanBatch.ProcessingLog = stamp + "\nAlready Processed"
		outcome = outcomeAlreadyProcessed
	case !scanBatch.BatchType.IsValid():
		scanBatch.ProcessingLog = stamp + "\nUnknown batchtype"
		outcome = outcomeUnknownType
	default:
		runErr := s.runLocked(ctx, scanBatch)
		var batchErr *scan.BatchError
		switch {
		case runErr == nil:
			scanBatch.ProcessingLog = stamp + "\nProcessing Complete"
			scanBatch.Processed = true
		case errors.Is(runErr, errAlreadyProcessed):
			scanBatch.Processed = true
			scanBatch.ProcessingLog = stamp + "\nAlready Processed"
			outcome = outcomeAlreadyProcessed
		case errors.As(runErr, &batchErr):
			lines := append([]string{stamp, batchErr.Error()}, batchErr.Errors...)
			scanBatch.ProcessingLog = strings.Join(lines, "\n")
			outcome = outcomeFailed
			s.metrics.RecordScanErrors(string(scanBatch.BatchType), len(batchErr.Errors))
		default:
			return nil, dErrors.Wrap(runErr, dErrors.CodeInternal, "batch processing aborted")
		}
	}

	scanBatch.UpdatedAt = s.clock()
	if err := s.batches.Update(ctx, scanBatch); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record batch outcome")
	}

	s.metrics.RecordRun(string(scanBatch.BatchType), outcome, s.clock().Sub(start).Seconds())
	span.SetAttributes(attribute.String("batch.outcome", outcome))
	s.logger.InfoContext(ctx, "batch dispatched",
		"batch_id", scanBatch.ID,
		"batchtype", scanBatch.BatchType,
		"outcome", outcome,
	)

	if outcome == outcomeComplete && s.events != nil {
		if err := s.events.BatchProcessed(ctx, scanBatch); err != nil {
			// The event stream is advisory; a publish failure never undoes
			// a committed batch.
			s.logger.WarnContext(ctx, "failed to publish batch event",
				"batch_id", scanBatch.ID,
				"error", err,
			)
		}
	}
	return scanBatch, nil
}

// runLocked executes the scan machine inside the unit of work, holding the
// run lock if one is configured.
func (s *Service) runLocked(ctx context.Context, scanBatch *batch.BatchScan) error {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire run lock: %w", err)
		}
		defer release()
	}
	// Re-check under the lock: another run may have committed this batch
	// while we waited, and applying it twice would double every bid.
	current, err := s.batches.Get(ctx, scanBatch.ID)
	if err != nil {
		return fmt.Errorf("reload batch: %w", err)
	}
	if current.Processed {
		return errAlreadyProcessed
	}
	return s.tx.RunInTx(ctx, func(store scan.Store) error {
		switch scanBatch.BatchType {
		case batch.TypeLocation:
			return scan.ProcessLocations(ctx, store, scanBatch.Data)
		case batch.TypeBidInterim:
			return scan.ProcessBids(ctx, store, scanBatch.Data, false)
		case batch.TypeBidFinal:
			return scan.ProcessBids(ctx, store, scanBatch.Data, true)
		case batch.TypeBidderID:
			return scan.ProcessBidderIDs(ctx, store, scanBatch.Data)
		default:
			return fmt.Errorf("no machine for batch type %q", scanBatch.BatchType)
		}
	})
}
