package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"bondgate/internal/audit"
	"bondgate/internal/bond"
	"bondgate/internal/custody"
	"bondgate/internal/investor"
	"bondgate/internal/issuer"
	jwttoken "bondgate/internal/jwt_token"
	"bondgate/internal/platform/config"
	"bondgate/internal/platform/httpserver"
	"bondgate/internal/platform/logger"
	"bondgate/internal/platform/metrics"
	"bondgate/internal/token"
	"bondgate/internal/transfer"
	httptransport "bondgate/internal/transport/http"
)

const auditInboxSize = 256

// main wires dependencies and owns the process lifecycle. All ledger
// logic lives in the internal packages.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("bondgate exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	deriver, err := custody.NewDeriver([]byte(cfg.VaultSeed))
	if err != nil {
		return err
	}

	stack, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer stack.Close()

	auditSinks := stack.AuditSinks
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := audit.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		auditSinks = append(auditSinks, publisher)
	}
	inbox := make(chan audit.Event, auditInboxSize)
	emitter := audit.NewChannelEmitter(inbox)
	worker := audit.NewWorker(audit.NewFanoutStore(auditSinks...), inbox, log)

	ledger := token.NewInProcessLedger()

	issuerSvc := issuer.NewService(stack.Issuers,
		issuer.WithLogger(log),
		issuer.WithAuditEmitter(emitter),
		issuer.WithMetrics(m),
	)
	investorSvc := investor.NewService(stack.Investors,
		investor.WithLogger(log),
		investor.WithAuditEmitter(emitter),
		investor.WithMetrics(m),
	)
	bondSvc := bond.NewService(stack.BondTx, stack.Bonds, deriver, ledger,
		bond.WithLogger(log),
		bond.WithAuditEmitter(emitter),
		bond.WithMetrics(m),
	)
	engine := transfer.NewEngine(stack.TransferTx, ledger, deriver,
		transfer.WithLogger(log),
		transfer.WithAuditEmitter(emitter),
		transfer.WithMetrics(m),
		transfer.WithIdempotencyStore(stack.Idempotency),
	)

	jwtSvc := jwttoken.NewService(cfg.JWTSigningKey, "bondgate", "bondgate")

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		JWTValidator: jwttoken.NewMiddlewareAdapter(jwtSvc),
		Registry:     httptransport.NewRegistryHandler(issuerSvc, log),
		Investors:    httptransport.NewInvestorHandler(investorSvc, log),
		Bonds:        httptransport.NewBondHandler(bondSvc, log),
		Transfers:    httptransport.NewTransferHandler(engine, log),
		Tokens:       httptransport.NewTokenHandler(ledger, deriver, log),
		Health: func(r *http.Request) error {
			return stack.Health(r.Context())
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(ctx)
	})
	g.Go(func() error {
		log.Info("starting bondgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
