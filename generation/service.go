package generation

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hamadhk7/3D-AR-GENERATOR/internal/metrics"
	"github.com/hamadhk7/3D-AR-GENERATOR/ledger"
	"github.com/hamadhk7/3D-AR-GENERATOR/store"
	"github.com/hamadhk7/3D-AR-GENERATOR/tripo"
	"github.com/hamadhk7/3D-AR-GENERATOR/types"
)

// RemoteClient is the remote provider surface the service depends on.
type RemoteClient interface {
	Submit(ctx context.Context, req *tripo.SubmitRequest) (tripo.JobHandle, error)
	GetStatus(ctx context.Context, handle tripo.JobHandle) (*tripo.Job, error)
	FetchArtifact(ctx context.Context, locator, destDir, localID, ext string) (string, error)
}

// ConvertJob acknowledges a format conversion request. Conversion itself is
// not implemented; the job id is returned so the API shape stays stable.
type ConvertJob struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// Service composes the remote client, poll controller, credit ledger, and
// model record store into the operations the HTTP and tool-call surfaces
// expose. One Service instance is shared by all in-flight requests; each
// generation polls independently.
type Service struct {
	client     RemoteClient
	poller     *Poller
	ledger     *ledger.Ledger
	records    store.Store
	storageDir string
	logger     *zap.Logger
	collector  *metrics.Collector
	now        func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCollector attaches a metrics collector.
func WithCollector(c *metrics.Collector) ServiceOption {
	return func(s *Service) { s.collector = c }
}

// WithServiceClock overrides the time source. Used in tests.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates the orchestration service. storageDir is where fetched
// artifacts are cached, one subdirectory per format.
func NewService(
	client RemoteClient,
	poller *Poller,
	creditLedger *ledger.Ledger,
	records store.Store,
	storageDir string,
	logger *zap.Logger,
	opts ...ServiceOption,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		client:     client,
		poller:     poller,
		ledger:     creditLedger,
		records:    records,
		storageDir: storageDir,
		logger:     logger.With(zap.String("component", "generation_service")),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate runs one full generation: validate, gate on local credits, submit,
// poll to a terminal state, persist the record, then debit exactly one
// credit. Failed and timed-out generations are never debited. The local
// credit check happens before any network call.
func (s *Service) Generate(ctx context.Context, req *tripo.SubmitRequest) (*store.ModelRecord, error) {
	start := s.now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	ok, balance, err := s.ledger.CheckAvailable(ctx, 1)
	if err != nil {
		return nil, err
	}
	s.collector.SetLedgerBalance(balance)
	if !ok {
		return nil, types.NewError(types.ErrInsufficientCredit,
			"insufficient local credits; apply for API credits or purchase them")
	}

	handle, err := s.client.Submit(ctx, req)
	if err != nil {
		s.collector.RecordGeneration(string(StateFailed), 0, s.now().Sub(start))
		return nil, err
	}

	s.logger.Info("generation started",
		zap.String("task_id", handle.TaskID),
		zap.String("prompt", req.Prompt),
	)

	result, pollErr := s.poller.Run(ctx, handle)
	if pollErr != nil {
		s.collector.RecordGeneration(string(result.State), result.Checks, s.now().Sub(start))
		return nil, pollErr
	}

	rec := &store.ModelRecord{
		ID:              store.IDPrefix + handle.TaskID,
		Prompt:          req.Prompt,
		Format:          req.Format,
		Quality:         req.Quality,
		Status:          "completed",
		CreatedAt:       s.now().UTC(),
		FileSizeBytes:   store.UnknownFileSize,
		DownloadLocator: result.Job.OutputLocator,
		ThumbnailURL:    result.Job.ThumbnailURL,
		RemoteJobID:     handle.TaskID,
	}

	if err := s.records.Append(ctx, rec); err != nil {
		return nil, err
	}

	debited, err := s.ledger.Debit(ctx, 1)
	if err != nil {
		return nil, err
	}
	if debited {
		snap, statusErr := s.ledger.Status(ctx)
		if statusErr == nil {
			s.collector.RecordDebit(1, snap.FreeBalance)
		}
	} else {
		// The balance moved between check and debit. The record is already
		// persisted, so surface the anomaly in logs rather than failing.
		s.logger.Warn("credit debit failed after successful generation",
			zap.String("model_id", rec.ID),
		)
	}

	s.collector.RecordGeneration(string(StateSucceeded), result.Checks, s.now().Sub(start))
	s.logger.Info("model generated",
		zap.String("model_id", rec.ID),
		zap.Int("checks", result.Checks),
	)
	return rec, nil
}

// ListModels returns persisted records, newest first.
func (s *Service) ListModels(ctx context.Context, limit, offset int) ([]store.ModelRecord, int, error) {
	return s.records.List(ctx, limit, offset)
}

// GetModel returns one record by id.
func (s *Service) GetModel(ctx context.Context, id string) (*store.ModelRecord, error) {
	return s.records.GetByID(ctx, id)
}

// DownloadModel resolves the local artifact path for id, fetching from the
// remote provider on first access. The download locator is resolved lazily
// via the originating job when the record does not carry one.
func (s *Service) DownloadModel(ctx context.Context, id string) (string, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	if rec.LocalPath != "" {
		if _, statErr := os.Stat(rec.LocalPath); statErr == nil {
			s.collector.RecordArtifactDownload("cached")
			return rec.LocalPath, nil
		}
	}

	locator := rec.DownloadLocator
	if locator == "" && rec.RemoteJobID != "" {
		job, statusErr := s.client.GetStatus(ctx, tripo.JobHandle{TaskID: rec.RemoteJobID})
		if statusErr != nil {
			s.collector.RecordArtifactDownload("error")
			return "", statusErr
		}
		locator = job.OutputLocator
	}
	if locator == "" {
		s.collector.RecordArtifactDownload("unavailable")
		return "", types.NewError(types.ErrArtifactUnavailable, "no download URL could be resolved")
	}

	destDir := filepath.Join(s.storageDir, rec.Format)
	path, err := s.client.FetchArtifact(ctx, locator, destDir, rec.ID, rec.Format)
	if err != nil {
		s.collector.RecordArtifactDownload("error")
		return "", err
	}

	if attachErr := s.records.AttachLocalPath(ctx, rec.ID, path); attachErr != nil {
		// The artifact is on disk; a bookkeeping miss only costs a re-fetch
		// check next time.
		s.logger.Warn("failed to attach local path",
			zap.String("model_id", rec.ID),
			zap.Error(attachErr),
		)
	}

	s.collector.RecordArtifactDownload("fetched")
	return path, nil
}

// CreditStatus returns the local ledger snapshot. This balance is tracked
// independently of whatever the remote provider accounts for.
func (s *Service) CreditStatus(ctx context.Context) (*ledger.Snapshot, error) {
	snap, err := s.ledger.Status(ctx)
	if err != nil {
		return nil, err
	}
	s.collector.SetLedgerBalance(snap.FreeBalance)
	return snap, nil
}

// ConvertFormat acknowledges a conversion request. Actual geometry
// conversion is out of scope; the record must exist and the target format
// must be valid, then a stub job id is returned.
func (s *Service) ConvertFormat(ctx context.Context, id, targetFormat string) (*ConvertJob, error) {
	if _, err := s.records.GetByID(ctx, id); err != nil {
		return nil, err
	}

	valid := false
	for _, f := range tripo.ValidFormats {
		if f == targetFormat {
			valid = true
			break
		}
	}
	if !valid {
		return nil, types.NewError(types.ErrValidation, "invalid target format")
	}

	return &ConvertJob{
		JobID:   "convert_" + uuid.NewString(),
		Message: "format conversion is not implemented; request acknowledged",
	}, nil
}
