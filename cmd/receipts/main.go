package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	auditpg "3tcapital/ms_fiscal_receipts/internal/adapters/audit/postgres"
	companypg "3tcapital/ms_fiscal_receipts/internal/adapters/company/postgres"
	healthhandler "3tcapital/ms_fiscal_receipts/internal/adapters/http/health"
	invoicehandler "3tcapital/ms_fiscal_receipts/internal/adapters/http/invoice"
	invoicepg "3tcapital/ms_fiscal_receipts/internal/adapters/invoice/postgres"
	"3tcapital/ms_fiscal_receipts/internal/adapters/invoice/suf"
	appcompany "3tcapital/ms_fiscal_receipts/internal/application/company"
	apphealth "3tcapital/ms_fiscal_receipts/internal/application/health"
	appinvoice "3tcapital/ms_fiscal_receipts/internal/application/invoice"
	"3tcapital/ms_fiscal_receipts/internal/core/audit"
	"3tcapital/ms_fiscal_receipts/internal/infrastructure/config"
	"3tcapital/ms_fiscal_receipts/internal/infrastructure/database"
	httpx "3tcapital/ms_fiscal_receipts/internal/infrastructure/http"
	"3tcapital/ms_fiscal_receipts/internal/infrastructure/http/server"
	"3tcapital/ms_fiscal_receipts/internal/infrastructure/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Database,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	log.Info("database connection established",
		"host", cfg.Database.Host,
		"database", cfg.Database.Database,
		"schema", cfg.Database.Schema,
	)

	schema := database.Schema(cfg.Database.Schema)
	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(ctx, pool, schema, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	var auditRepo audit.Repository
	if cfg.Audit.Enabled {
		auditRepo = auditpg.NewRepository(pool, schema, log)
		log.Info("portal audit trail enabled", "max_body_size", cfg.Audit.MaxBodySize)
	} else {
		log.Info("portal audit trail disabled")
	}

	portalClient := httpx.NewTracedClient(&httpx.TracedClientConfig{
		Timeout:         cfg.Portal.APITimeout,
		AuditEnabled:    cfg.Audit.Enabled,
		LogRequestBody:  cfg.Audit.LogRequestBody,
		LogResponseBody: cfg.Audit.LogResponseBody,
		MaxBodySize:     cfg.Audit.MaxBodySize,
		RateLimitRPS:    cfg.Portal.RateLimitRPS,
		RateLimitBurst:  cfg.Portal.RateLimitBurst,
	}, log, auditRepo, suf.Portal)

	breaker := suf.NewCircuitBreaker(cfg.Portal.BreakerFailures, 0.5, cfg.Portal.BreakerCooldown)
	lineItems, err := suf.NewLineItemFetcher(portalClient, cfg.Portal.SpecificationsURL, breaker, log)
	if err != nil {
		return fmt.Errorf("create line item fetcher: %w", err)
	}

	ingestor := appinvoice.NewService(
		suf.NewDocumentFetcher(portalClient, breaker, log),
		suf.NewTokenExtractor(),
		lineItems,
		appcompany.NewResolver(companypg.NewRepository(pool, schema), log),
		invoicepg.NewRepository(pool, schema),
		appinvoice.Config{
			Currency:     cfg.Portal.Currency,
			AllowedHosts: cfg.Portal.AllowedHosts,
		},
		log,
	)

	healthService := apphealth.NewService(apphealth.Metadata{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	}, apphealth.Check{Name: "postgres", Pinger: pool})

	srv, err := server.New(server.Options{
		Config:         cfg,
		Logger:         log,
		HealthHandler:  healthhandler.NewHandler(healthService, log),
		InvoiceHandler: invoicehandler.NewHandler(ingestor, log),
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	log.Info("fiscal receipts service starting",
		"port", cfg.HTTP.Port,
		"environment", cfg.App.Environment,
		"auth_enabled", cfg.Auth.Enabled,
		"specifications_url", cfg.Portal.SpecificationsURL,
	)
	return srv.Run(ctx)
}
