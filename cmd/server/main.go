package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aqcode/internal/api"
	"aqcode/internal/app/sandbox"
	"aqcode/internal/app/service"
	"aqcode/internal/common/security"
	"aqcode/internal/domain/repository"
	"aqcode/internal/platform/config"
	"aqcode/internal/platform/database"
	"aqcode/internal/platform/locker"

	"go.uber.org/zap"
)

func main() {
	config.Load()
	cfg := config.AppConfig

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	security.InitJWT(cfg.JWTKey)

	// Postgres is optional. Without DB_HOST the server keeps everything in
	// memory, which is enough for local runs and tests.
	var db *sql.DB
	var problemRepo repository.ProblemRepository
	var submissionRepo repository.SubmissionRepository
	if cfg.DBHost != "" {
		db, err = database.Connect(cfg.DBConnStr)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer db.Close()
		problemRepo = repository.NewPgProblemRepository(db)
		submissionRepo = repository.NewPgSubmissionRepository(db)
		logger.Info("database connected", zap.String("host", cfg.DBHost))
	} else {
		problemRepo = repository.NewMemoryProblemRepository()
		submissionRepo = repository.NewMemorySubmissionRepository()
		logger.Warn("DB_HOST not set, using in-memory repositories")
	}

	// Redis backs the per-submission lock. Same optionality as the database.
	var locks locker.SubmissionLocker
	if cfg.RedisAddr != "" {
		rdb, err := locker.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("redis connection failed", zap.Error(err))
		}
		defer rdb.Close()
		locks = locker.NewRedisLocker(rdb, time.Duration(cfg.SubmissionLockTTLSeconds)*time.Second, logger)
		logger.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	} else {
		locks = locker.NewMemoryLocker()
		logger.Warn("REDIS_ADDR not set, using in-process submission locks")
	}

	var gate security.ReviewerGate
	if cfg.ReviewerAuthMode == "jwt" {
		gate = security.NewJWTGate()
	} else {
		gate = security.NewStaticTokenGate(cfg.ReviewerTokenHash)
	}

	runner := sandbox.NewProcessRunner(sandbox.Config{
		PythonExecutable: cfg.PythonExecutable,
		Timeout:          time.Duration(cfg.SandboxTimeoutSeconds) * time.Second,
		OutputLimit:      cfg.SandboxOutputLimit,
		RecursionLimit:   cfg.SandboxRecursionLimit,
	}, sandbox.NewRegexGuard(), logger)

	problemService := service.NewProblemService(problemRepo, db, logger)
	executionService := service.NewExecutionService(submissionRepo, problemRepo, runner, locks, db, logger)
	submissionService := service.NewSubmissionService(submissionRepo, problemRepo, locks, db, logger)
	reviewService := service.NewReviewService(submissionRepo, problemRepo, locks, db, logger)

	router := api.NewRouter(problemService, executionService, submissionService, reviewService, gate)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-stop

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
