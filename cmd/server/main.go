package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/httplouis/TraveLink-sub009/internal/application/dispatcher"
	"github.com/httplouis/TraveLink-sub009/internal/application/service"
	appwf "github.com/httplouis/TraveLink-sub009/internal/application/workflow"
	"github.com/httplouis/TraveLink-sub009/internal/config"
	"github.com/httplouis/TraveLink-sub009/internal/infrastructure/persistence/repository"
	httpapi "github.com/httplouis/TraveLink-sub009/internal/interfaces/http"
	"github.com/httplouis/TraveLink-sub009/pkg/database"
	"github.com/httplouis/TraveLink-sub009/pkg/utils"
)

func main() {
	// Local development overrides; absence is not an error
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting TraveLink approval workflow service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	requestRepo := repository.NewRequestRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	roleRepo := repository.NewRoleRepository(db.DB, logger)
	notificationRepo := repository.NewNotificationRepository(db.DB, logger)
	txManager := repository.NewTxManager(db)

	// Application services
	appLogger := &zapLoggerAdapter{logger: logger}

	roleResolver := service.NewRoleResolver(roleRepo, appLogger)
	assignmentResolver := service.NewAssignmentResolver(roleRepo, appLogger)

	eventDispatcher := dispatcher.NewDispatcher(dispatcher.WithLogger(appLogger))
	defer eventDispatcher.Close()

	notifier := service.NewTransitionNotifier(notificationRepo, appLogger)
	notifier.Register(eventDispatcher)

	engine := appwf.NewEngine(
		requestRepo,
		historyRepo,
		roleRepo,
		txManager,
		roleResolver,
		assignmentResolver,
		appLogger,
		appwf.WithDispatcher(eventDispatcher),
		appwf.WithPolicy(appwf.PolicyConfig{
			PresidentBudgetThreshold: cfg.Workflow.PresidentBudgetThreshold,
			EscalateHeadToParent:     cfg.Workflow.EscalateHeadToParent,
			CompletionActorID:        cfg.Workflow.CompletionActorID,
		}),
	)

	// HTTP server
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, engine, roleRepo, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Server exited successfully")
}

// zapLoggerAdapter adapts zap.Logger to the application Logger interfaces.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
