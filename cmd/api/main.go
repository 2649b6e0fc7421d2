package main

import (
	"context"
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"flex_reviews/internal/adapters/googleplaces"
	"flex_reviews/internal/adapters/hostaway"
	server "flex_reviews/internal/adapters/http_server"
	"flex_reviews/internal/adapters/observability"
	redisad "flex_reviews/internal/adapters/redis"
	"flex_reviews/internal/app"
	"flex_reviews/internal/domain"
	"flex_reviews/internal/shared"
	mysqlrepo "flex_reviews/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	repo := mysqlrepo.New(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("ensure schema failed")
	}
	log.Info().Msg("database connection ok")

	// channel clients; live stays disabled without credentials
	var hostawayClient domain.HostawayClient
	if cfg.HostawayKey != "" {
		hc, err := hostaway.New(cfg.HostawayBase, cfg.HostawayAccount, cfg.HostawayKey, 5)
		if err != nil {
			log.Fatal().Err(err).Msg("hostaway client init failed")
		}
		hostawayClient = hc
	}
	var placesClient domain.PlacesClient
	if cfg.PlacesKey != "" {
		pc, err := googleplaces.New(googleplaces.DefaultBase, cfg.PlacesKey, 5)
		if err != nil {
			log.Fatal().Err(err).Msg("googleplaces client init failed")
		}
		placesClient = pc
	}

	mockItems, err := hostaway.MockItems()
	if err != nil {
		log.Fatal().Err(err).Msg("load mock dataset failed")
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	reviews := app.NewReviewService(hostawayClient, placesClient, repo, cache, mockItems, cfg.CacheTTL, domain.Source(cfg.DefaultSource))
	curation := app.NewCurationService(repo, cache)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Reviews: reviews, Curation: curation})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
