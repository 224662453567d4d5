package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/example/uniform-control/internal/classifier"
	"github.com/example/uniform-control/internal/logging"
	"github.com/example/uniform-control/internal/session"
)

// MaxUploadSize caps accepted image payloads at 10 MiB.
const MaxUploadSize = 10 << 20

// Failure sentinels of the analysis pipeline, discriminated with errors.Is.
var (
	// ErrBusy means an analysis is already in flight for this session.
	ErrBusy = errors.New("ya hay un analisis en curso")
	// ErrValidation marks a rejected payload; the wrapped message is user
	// facing.
	ErrValidation = errors.New("carga invalida")
	// ErrStorage means the temp artifact could not be persisted.
	ErrStorage = errors.New("error al guardar la imagen temporal")
)

// ValidationError carries the user-facing reason a payload was rejected.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TempStore is the slice of the storage layer the pipeline needs.
type TempStore interface {
	Save(data []byte, ext string) (string, error)
	Remove(path string)
}

// Sink optionally receives every verdict for external persistence. Failures
// are logged and never affect the request.
type Sink interface {
	Save(ctx context.Context, verdict classifier.Verdict) error
}

// Notifier is the alerting surface the pipeline drives on non-compliance.
type Notifier interface {
	Notify(verdict classifier.Verdict)
}

// AnalysisUseCase orchestrates one detection: validate the payload, persist
// it to a temp artifact, run the classifier, book the verdict into the
// session, and raise the alert on non-compliance.
type AnalysisUseCase struct {
	store    TempStore
	invoker  classifier.Invoker
	tracker  *session.Tracker
	alerter  Notifier
	sink     Sink
	logger   *zap.Logger
	inflight *semaphore.Weighted
}

// NewAnalysisUseCase constructs the pipeline. sink may be nil.
func NewAnalysisUseCase(store TempStore, invoker classifier.Invoker, tracker *session.Tracker, alerter Notifier, sink Sink, logger *zap.Logger) *AnalysisUseCase {
	return &AnalysisUseCase{
		store:    store,
		invoker:  invoker,
		tracker:  tracker,
		alerter:  alerter,
		sink:     sink,
		logger:   logger.Named("analysis_usecase"),
		inflight: semaphore.NewWeighted(1),
	}
}

// Analyze runs the full detection pipeline for one image payload. The
// declared filename is logged for traceability only; artifact names always
// derive from a fresh token. The session is only mutated after a successful
// classification; any earlier failure leaves it untouched. The temp
// artifact is removed on every exit path.
func (uc *AnalysisUseCase) Analyze(ctx context.Context, data []byte, filename string) (classifier.Verdict, error) {
	if !uc.inflight.TryAcquire(1) {
		return classifier.Verdict{}, ErrBusy
	}
	defer uc.inflight.Release(1)

	requestID := uuid.NewString()
	opLogger := logging.WithOperation(uc.logger, "usecase.analyze", requestID)
	if filename != "" {
		opLogger = opLogger.With(zap.String("filename", filename))
	}

	ext, err := validatePayload(data)
	if err != nil {
		opLogger.Warn("payload rejected", zap.Error(err))
		return classifier.Verdict{}, err
	}

	path, err := uc.store.Save(data, ext)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.save_temp", requestID, fmt.Errorf("%w: %v", ErrStorage, err))
		opLogger.Error("failed to persist temp artifact", zap.Error(wrapped))
		return classifier.Verdict{}, wrapped
	}
	defer uc.store.Remove(path)

	verdict, err := uc.invoker.Classify(ctx, path)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.classify", requestID, err)
		opLogger.Error("classification failed", zap.Error(wrapped))
		return classifier.Verdict{}, wrapped
	}

	entry := uc.tracker.Record(verdict)
	opLogger.Info("verdict recorded",
		zap.Uint64("entry_id", entry.ID),
		zap.Bool("is_compliant", verdict.IsCompliant),
		zap.Float64("confidence", verdict.Confidence))

	if !verdict.IsCompliant {
		uc.alerter.Notify(verdict)
	}

	if uc.sink != nil {
		if err := uc.sink.Save(ctx, verdict); err != nil {
			opLogger.Warn("detection sink failed", zap.Error(err))
		}
	}

	return verdict, nil
}

// validatePayload enforces the upload contract in order: a non-empty image,
// a sniffed type of JPEG or PNG (content, not filename), and the size cap.
// It returns the canonical extension for the temp artifact.
func validatePayload(data []byte) (string, error) {
	if len(data) == 0 {
		return "", &ValidationError{Message: "No se recibio ninguna imagen valida"}
	}

	mtype := mimetype.Detect(data)
	if !mtype.Is("image/jpeg") && !mtype.Is("image/png") {
		return "", &ValidationError{Message: "Tipo de archivo no permitido"}
	}

	if len(data) > MaxUploadSize {
		return "", &ValidationError{Message: "La imagen es demasiado grande"}
	}

	return mtype.Extension(), nil
}
