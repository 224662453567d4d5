package classifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Invoker abstracts the external uniform model so the use case can be tested
// with stubs.
type Invoker interface {
	Classify(ctx context.Context, imagePath string) (Verdict, error)
}

// Sentinel failures of the classifier boundary. Callers discriminate with
// errors.Is.
var (
	// ErrUnavailable means the interpreter or model script cannot be found.
	ErrUnavailable = errors.New("modelo no disponible")
	// ErrOutput means the model ran but did not produce one well-formed
	// JSON verdict on stdout.
	ErrOutput = errors.New("salida del modelo invalida")
	// ErrTimeout means the model exceeded its execution deadline.
	ErrTimeout = errors.New("el modelo excedio el tiempo limite")
)

// OutputError wraps ErrOutput and carries the raw model output for
// diagnostics.
type OutputError struct {
	Raw string
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("error en salida del modelo: %s", strings.TrimSpace(e.Raw))
}

func (e *OutputError) Unwrap() error { return ErrOutput }

// ScriptInvoker runs the model as a Python subprocess. The image path is
// always passed as a discrete argv element; no shell is ever involved, so a
// hostile path cannot become a command.
type ScriptInvoker struct {
	python  string
	script  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewScriptInvoker constructs an invoker for the given interpreter and model
// script. The timeout bounds every Classify call.
func NewScriptInvoker(python, script string, timeout time.Duration, logger *zap.Logger) (*ScriptInvoker, error) {
	if _, err := exec.LookPath(python); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &ScriptInvoker{
		python:  python,
		script:  script,
		timeout: timeout,
		logger:  logger.Named("classifier"),
	}, nil
}

// Classify runs the model against the image at imagePath and returns its
// normalized verdict.
func (s *ScriptInvoker) Classify(ctx context.Context, imagePath string) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.python, s.script, imagePath)
	// Orphaned children of the interpreter must not pin the output pipes
	// open past the deadline.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() == context.DeadlineExceeded {
		s.logger.Warn("model execution timed out",
			zap.Duration("elapsed", elapsed),
			zap.Duration("timeout", s.timeout))
		return Verdict{}, fmt.Errorf("%w (%s)", ErrTimeout, s.timeout)
	}
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return Verdict{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		s.logger.Warn("model exited abnormally",
			zap.Error(err),
			zap.String("stderr", strings.TrimSpace(stderr.String())))
		return Verdict{}, &OutputError{Raw: firstNonEmpty(stdout.String(), stderr.String(), err.Error())}
	}

	verdict, perr := normalizeVerdict(bytes.TrimSpace(stdout.Bytes()), time.Now())
	if perr != nil {
		s.logger.Warn("model produced non-JSON output",
			zap.String("stdout", strings.TrimSpace(stdout.String())))
		return Verdict{}, &OutputError{Raw: stdout.String()}
	}

	s.logger.Info("model verdict",
		zap.Bool("is_compliant", verdict.IsCompliant),
		zap.Float64("confidence", verdict.Confidence),
		zap.String("uniform_type", verdict.UniformType),
		zap.Duration("elapsed", elapsed))
	return verdict, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
