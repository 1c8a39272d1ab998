package main

import (
	"context"
	"fmt"
	"os"

	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"github.com/nerbixa/payment-reconciler/internal/domain/port/usecase"
	"github.com/nerbixa/payment-reconciler/internal/domain/usecase/reconciliation"
	"github.com/nerbixa/payment-reconciler/internal/domain/usecase/user"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/database"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/logger"
	timeProvider "github.com/nerbixa/payment-reconciler/internal/infrastructure/adapter/time"
	"github.com/nerbixa/payment-reconciler/internal/infrastructure/config"
)

var Version = "dev"

// services is what the subcommands operate on
type services struct {
	Users   usecase.UserUseCase
	Orphans usecase.ReconciliationUseCase
	Migrate func(ctx context.Context) error
}

// opener connects lazily so --help never touches the database
type opener func(quiet bool) (*services, func(), error)

func main() {
	if err := newRootCmd(openDatabase).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDatabase(quiet bool) (*services, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	var appLogger coreport.Logger = logger.NewNoopLogger()
	if !quiet {
		zl, err := logger.NewZapLogger(logger.Options{Level: cfg.Logger.Level, Format: "console"})
		if err != nil {
			return nil, nil, fmt.Errorf("create logger: %w", err)
		}
		appLogger = zl
	}

	tp := timeProvider.NewRealTimeProvider()
	manager := database.NewManager(database.NewConfig(cfg), appLogger, tp)
	if _, err := manager.Connect(); err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	uow := manager.CreateUnitOfWork()
	svc := &services{
		Users:   user.NewUserUseCase(uow.GetUserRepository(context.Background()), tp, appLogger),
		Orphans: reconciliation.NewOrphanUseCase(uow, tp, appLogger),
		Migrate: manager.Migrate,
	}

	return svc, func() {
		_ = manager.Close()
		_ = appLogger.Flush()
	}, nil
}
