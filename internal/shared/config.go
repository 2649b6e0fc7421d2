package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv          string
	HTTPAddr        string
	MetricsAddr     string
	MySQLDSN        string
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	HostawayBase    string
	HostawayAccount string
	HostawayKey     string
	PlacesKey       string
	DefaultSource   string
	Workers         int
	WarmListings    []string
	CacheTTL        time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:          env("APP_ENV", "prod"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		MetricsAddr:     env("METRICS_ADDR", ":9100"),
		MySQLDSN:        env("MYSQL_DSN", "root:root@tcp(localhost:3306)/flexrev?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:       env("REDIS_ADDR", "localhost:6379"),
		RedisPass:       env("REDIS_PASSWORD", ""),
		RedisDB:         atoi("REDIS_DB", 0),
		HostawayBase:    env("HOSTAWAY_API_BASE", "https://api.hostaway.com/v1"),
		HostawayAccount: env("HOSTAWAY_ACCOUNT_ID", "61148"),
		HostawayKey:     env("HOSTAWAY_API_KEY", ""),
		PlacesKey:       env("GOOGLE_PLACES_API_KEY", ""),
		DefaultSource:   env("REVIEWS_SOURCE", "auto"),
		Workers:         atoi("INGEST_WORKERS", 8),
		WarmListings:    splitCSV(env("WARM_LISTINGS", "")),
		CacheTTL:        time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.HostawayKey == "" {
		log.Warn().Msg("HOSTAWAY_API_KEY is empty; live source disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
