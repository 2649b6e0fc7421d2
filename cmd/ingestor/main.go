// The ingestor pre-warms the review caches: one live channel fetch plus
// the selected view for each configured listing, so the first dashboard
// load after a deploy doesn't pay the upstream latency.
package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"flex_reviews/internal/adapters/hostaway"
	"flex_reviews/internal/adapters/observability"
	redisad "flex_reviews/internal/adapters/redis"
	"flex_reviews/internal/app"
	"flex_reviews/internal/domain"
	"flex_reviews/internal/shared"
	mysqlrepo "flex_reviews/internal/storage/mysql"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	if cfg.HostawayKey == "" {
		log.Warn().Msg("no HOSTAWAY_API_KEY; nothing to warm")
		return
	}

	log.Info().
		Str("base", cfg.HostawayBase).
		Int("workers", cfg.Workers).
		Int("listings", len(cfg.WarmListings)).
		Msg("ingestor starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	repo := mysqlrepo.New(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure schema failed")
	}

	client, err := hostaway.New(cfg.HostawayBase, cfg.HostawayAccount, cfg.HostawayKey, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("hostaway client init failed")
	}
	mockItems, err := hostaway.MockItems()
	if err != nil {
		log.Fatal().Err(err).Msg("load mock dataset failed")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	reviews := app.NewReviewService(client, nil, repo, cache, mockItems, cfg.CacheTTL, domain.SourceAuto)

	// one live fetch fills the shared channel snapshot
	if _, err := reviews.Reviews(ctx, domain.ReviewsQuery{Source: domain.SourceLive}); err != nil {
		log.Warn().Err(err).Msg("live warm fetch failed")
	} else {
		log.Info().Msg("channel snapshot warmed")
	}

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, listing := range cfg.WarmListings {
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(listingID string) {
			defer wg.Done()
			defer sem.Release(1)

			items, err := reviews.Selected(ctx, listingID, domain.SourceAuto)
			if err != nil {
				log.Warn().Str("listing", listingID).Err(err).Msg("warm failed")
				return
			}
			log.Info().Str("listing", listingID).Int("selected", len(items)).Msg("warm ok")
		}(listing)
	}

	wg.Wait()
	log.Info().Msg("warm completed")
}
