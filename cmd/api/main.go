package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sodam-care/service-care-go/internal/auth"
	"github.com/sodam-care/service-care-go/internal/careuser"
	"github.com/sodam-care/service-care-go/internal/config"
	"github.com/sodam-care/service-care-go/internal/livekit"
	"github.com/sodam-care/service-care-go/internal/router"
	"github.com/sodam-care/service-care-go/pkg/database"
	"github.com/sodam-care/service-care-go/pkg/utilities"
)

func main() {
	// load .env file if present; real environment wins
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	lg, err := utilities.InitLogger(utilities.LogConfig{
		Level:  cfg.Log.Level,
		Dev:    cfg.Log.Dev,
		File:   cfg.Log.File,
		MaxAge: cfg.Log.MaxAge,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	if err := utilities.SetSnowflakeNode(cfg.SnowflakeNode); err != nil {
		sugar.Fatalf("snowflake node: %v", err)
	}
	sugar.Infow("starting service-care-go", "addr", cfg.HTTPAddr, "prefix", cfg.APIPrefix)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// init db
	db, err := database.Connect(database.Config{
		Driver:         cfg.Database.Driver,
		DSN:            cfg.Database.URL,
		MaxConns:       cfg.Database.MaxConns,
		Timeout:        cfg.Database.Timeout,
		TimeZone:       cfg.Database.TimeZone,
		ClientEncoding: cfg.Database.ClientEncoding,
	})
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.DB); err != nil {
		sugar.Fatalf("db migrate: %v", err)
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWT)
	if err != nil {
		sugar.Fatalf("token issuer: %v", err)
	}
	authSvc := auth.NewService(auth.NewSQLStores(db), auth.BcryptHasher{Cost: cfg.Bcrypt.Cost}, tokens, nil, sugar)
	careSvc := careuser.NewService(careuser.NewSQLStore(db), sugar)
	lkSvc := livekit.NewService(cfg.LiveKit, nil, sugar)

	handler := router.RegisterRoutes(sugar, router.Deps{
		Prefix:      cfg.APIPrefix,
		CORSOrigins: cfg.CORS.Origins,
		Auth:        auth.NewHandler(authSvc, sugar),
		Resolver:    authSvc,
		CareUsers:   careuser.NewHandler(careSvc, sugar),
		LiveKit:     livekit.NewHandler(lkSvc, sugar),
		Metrics:     router.NewMetrics(),
		DB:          db,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()
	sugar.Info("service is running; press Ctrl+C to stop")

	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
