package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"barter-exchange/internal/backend"
	barter "barter-exchange/internal/barterService"
	"barter-exchange/internal/cache"
	"barter-exchange/internal/config"
	"barter-exchange/internal/equity"
	"barter-exchange/internal/idempotency"
	model "barter-exchange/internal/models"
	"barter-exchange/internal/repository"
	"barter-exchange/internal/server"
	"barter-exchange/internal/session"
	"barter-exchange/utils"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("barter-exchange", pflag.ContinueOnError)
	configPath := flags.String("config", os.Getenv(config.EnvConfigPath), "path to the YAML config file")
	issueToken := flags.String("issue-token", "", "print a session token for USER[:premium] and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "barter-exchange: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	if err := utils.ConfigureLogger(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log config: %v\n", err)
		os.Exit(1)
	}

	sessions, err := session.NewManager(session.Config{
		SecretKey: cfg.Auth.JWTSecret,
		Issuer:    cfg.Auth.Issuer,
		TokenTTL:  cfg.Auth.TokenTTL,
	})
	if err != nil {
		utils.Fatal("failed to create session manager", map[string]any{"error": err.Error()})
	}

	if *issueToken != "" {
		token, err := sessions.Issue(parseSessionFlag(*issueToken))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	app, err := buildApp(context.Background(), cfg, sessions)
	if err != nil {
		utils.Fatal("failed to start barter exchange", map[string]any{"error": err.Error()})
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Info("starting barter exchange", map[string]any{
			"addr":           cfg.Server.Addr,
			"storage":        cfg.Storage.Driver,
			"catalog":        cfg.Catalog.Source,
			"idempotency":    cfg.Storage.IdempotencyPath != "",
			"catalog_cached": app.cache != nil,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
		}
	}()

	operations := map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			utils.Info("graceful shutdown initiated", nil)
			return srv.Shutdown(ctx)
		},
	}
	for name, closeFn := range app.closers {
		closeFn := closeFn
		operations[name] = func(context.Context) error { return closeFn() }
	}

	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.Server.ShutdownTimeout, operations)

	exitCode := <-wait
	utils.Info("barter exchange exited", map[string]any{"exit_code": exitCode})
	os.Exit(exitCode)
}

// parseSessionFlag reads USER or USER:premium
func parseSessionFlag(v string) model.Session {
	user, flag, _ := strings.Cut(v, ":")
	return model.Session{UserID: user, Premium: flag == "premium"}
}

type application struct {
	router  http.Handler
	cache   *cache.Cache
	closers map[string]func() error
}

// buildApp wires storage, backends and the router from cfg
func buildApp(ctx context.Context, cfg config.Config, sessions *session.Manager) (*application, error) {
	app := &application{closers: map[string]func() error{}}

	var (
		store   repository.ProposalStore
		local   repository.Catalog
		seedErr error
	)
	switch cfg.Storage.Driver {
	case "sqlite":
		db, err := repository.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		repo, err := repository.NewGormRepo(db)
		if err != nil {
			return nil, err
		}
		app.closers["sqlite"] = repo.Close
		for _, p := range demoProducts() {
			if err := repo.AddProduct(ctx, p); err != nil {
				seedErr = errors.Join(seedErr, err)
			}
		}
		store, local = repo, repo
	default:
		repo := repository.NewMemoryRepo()
		for _, p := range demoProducts() {
			repo.AddProduct(p)
		}
		store, local = repo, repo
	}
	if seedErr != nil {
		return nil, fmt.Errorf("seed products: %w", seedErr)
	}

	catalog := local
	if cfg.Catalog.Source == "remote" {
		client, err := backend.NewCatalogClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout)
		if err != nil {
			return nil, err
		}
		catalog = client
	}

	evaluator, err := backend.NewEquityClient(cfg.Equity.BaseURL, cfg.Equity.Timeout)
	if err != nil {
		return nil, err
	}
	policy := equity.Policy{
		MaxDifferencePercentage: cfg.Equity.MaxDifferencePercentage,
		RequireFairVerdict:      cfg.Equity.RequireFairVerdict,
	}

	// product browsing may be served from redis; lifecycle validation always reads through
	browse := catalog
	if cfg.Cache.RedisAddr != "" {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.RedisAddr = cfg.Cache.RedisAddr
		if cfg.Cache.Prefix != "" {
			cacheCfg.Prefix = cfg.Cache.Prefix
		}
		if cfg.Cache.TTL > 0 {
			cacheCfg.TTL = cfg.Cache.TTL
		}
		c, err := cache.Connect(ctx, cacheCfg)
		if err != nil {
			utils.Warn("redis unavailable, serving catalog uncached", map[string]any{"addr": cfg.Cache.RedisAddr, "error": err.Error()})
		} else {
			cached := cache.NewCachedCatalog(catalog, c)
			for _, p := range demoProducts() {
				if err := cached.Invalidate(ctx, p.ProductID); err != nil {
					utils.Warn("failed to invalidate cached product", map[string]any{"product_id": p.ProductID, "error": err.Error()})
				}
			}
			app.cache = c
			app.closers["redis"] = c.Close
			browse = cached
		}
	}

	deps := server.Dependencies{
		Barter:   barter.NewBarterService(store, catalog, evaluator, policy),
		Catalog:  browse,
		Sessions: sessions,
		Cache:    app.cache,
	}
	if cfg.Storage.IdempotencyPath != "" {
		idem, err := idempotency.Open(cfg.Storage.IdempotencyPath, cfg.Storage.IdempotencyTTL)
		if err != nil {
			return nil, err
		}
		app.closers["idempotency"] = idem.Close
		deps.Idempotency = idem
	}

	app.router = server.SetupRouter(deps)
	return app, nil
}

// demoProducts is the sample catalog loaded into the local store
func demoProducts() []model.Product {
	return []model.Product{
		{ProductID: "potatoes", OwnerID: "alice", Name: "Potatoes", Price: 0.8, Stock: 40, Unit: "kg", Tradable: true},
		{ProductID: "apples", OwnerID: "alice", Name: "Apples", Price: 1.2, Stock: 25, Unit: "kg", Tradable: true},
		{ProductID: "tomatoes", OwnerID: "bob", Name: "Tomatoes", Price: 2.5, Stock: 10, Unit: "kg", Tradable: true},
		{ProductID: "eggs", OwnerID: "bob", Name: "Eggs", Price: 0.3, Stock: 60, Unit: "pcs", Tradable: true},
		{ProductID: "tractor", OwnerID: "bob", Name: "Tractor", Price: 12000, Stock: 1, Unit: "pcs", Tradable: false},
		{ProductID: "honey", OwnerID: "carol", Name: "Honey", Price: 9, Stock: 12, Unit: "jar", Tradable: true},
	}
}
