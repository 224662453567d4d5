package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/example/uniform-control/internal/alert"
	"github.com/example/uniform-control/internal/classifier"
	"github.com/example/uniform-control/internal/config"
	"github.com/example/uniform-control/internal/handlers"
	"github.com/example/uniform-control/internal/logging"
	"github.com/example/uniform-control/internal/repository"
	"github.com/example/uniform-control/internal/session"
	"github.com/example/uniform-control/internal/storage"
	"github.com/example/uniform-control/internal/usecase"
	"github.com/example/uniform-control/internal/ws"
)

func main() {
	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg := config.Load()

	store, err := storage.NewStore(cfg.TempDir, logger)
	if err != nil {
		logger.Fatal("failed to prepare temp storage", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go storage.NewSweeper(store, cfg.SweepInterval, cfg.SweepMaxAge).Run(ctx)

	invoker := buildInvoker(cfg, logger)

	tracker := session.NewTracker()
	hub := ws.NewHub(logger)
	alerter := alert.New(alert.DefaultWindow, hub, nil, logger)

	var sink usecase.Sink
	if cfg.DatabaseDSN != "" {
		sink = initSink(cfg.DatabaseDSN, logger)
	}

	uc := usecase.NewAnalysisUseCase(store, invoker, tracker, alerter, sink, logger)

	r := gin.Default()
	r.MaxMultipartMemory = usecase.MaxUploadSize
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: []string{"POST", "GET", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	handlers.RegisterRoutes(r, uc, tracker, alerter, hub, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	logger.Info("uniform-control API listening", zap.String("addr", server.Addr))
	if err := serveHTTPServer(server, 15*time.Second, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// buildInvoker wires the model subprocess. A missing interpreter or script
// keeps the server up; every analyze request then answers with the
// model-unavailable error, the way the legacy gateway behaved.
func buildInvoker(cfg *config.Config, logger *zap.Logger) classifier.Invoker {
	invoker, err := classifier.NewScriptInvoker(cfg.PythonExecutable, cfg.ClassifierScript, cfg.ClassifierTimeout, logger)
	if err != nil {
		logger.Warn("classifier unavailable, analyze requests will fail",
			zap.String("script", cfg.ClassifierScript), zap.Error(err))
		return unavailableInvoker{}
	}
	return invoker
}

type unavailableInvoker struct{}

func (unavailableInvoker) Classify(ctx context.Context, imagePath string) (classifier.Verdict, error) {
	return classifier.Verdict{}, classifier.ErrUnavailable
}

func initSink(dsn string, logger *zap.Logger) usecase.Sink {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	repo := repository.NewDetectionRepository(db)
	migrateCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := repo.AutoMigrate(migrateCtx); err != nil {
		logger.Fatal("auto migrate failed", zap.Error(err))
	}

	logger.Info("detection sink enabled")
	return repo
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
