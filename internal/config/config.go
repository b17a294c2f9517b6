package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/store-locator/internal/domain"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheBadger = "badger"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	Location        *time.Location

	// Upstream providers.
	NominatimURL        string
	PhotonURL           string
	OSRMURL             string
	ContactEmail        string
	CountryCode         string
	ProviderTimeout     time.Duration
	ThrottleInterval    time.Duration
	ConfidenceThreshold float64

	DefaultCenter domain.Point
	DefaultBrand  string

	CacheBackend    string
	CachePath       string
	CacheSize       int
	GeocodeCacheTTL time.Duration
	SearchCacheTTL  time.Duration
	SuggestCacheTTL time.Duration
	ReverseCacheTTL time.Duration
	RouteCacheTTL   time.Duration

	// CatalogDSN is the DuckDB database path; empty means in-memory.
	CatalogDSN       string
	BrandAliasesFile string

	// Batch geocoding over Kafka.
	BatchEnabled       bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	tz := sharedcfg.EnvOrDefault("TIMEZONE", "Asia/Ho_Chi_Minh")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		Location:        loc,

		NominatimURL: sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		PhotonURL:    sharedcfg.EnvOrDefault("PHOTON_URL", "https://photon.komoot.io"),
		OSRMURL:      sharedcfg.EnvOrDefault("OSRM_URL", "https://router.project-osrm.org"),
		ContactEmail: sharedcfg.EnvOrDefault("CONTACT_EMAIL", "ops@example.com"),
		CountryCode:  sharedcfg.EnvOrDefault("COUNTRY_CODE", "vn"),
		DefaultBrand: sharedcfg.EnvOrDefault("DEFAULT_BRAND", "CIRCLEK"),

		CacheBackend: sharedcfg.EnvOrDefault("CACHE_BACKEND", CacheMemory),
		CachePath:    os.Getenv("CACHE_PATH"),

		CatalogDSN:       os.Getenv("CATALOG_DSN"),
		BrandAliasesFile: os.Getenv("BRAND_ALIASES_FILE"),

		BatchEnabled:       os.Getenv("BATCH_ENABLED") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "geocode-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "geocode-results"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "store-locator"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	durations := []struct {
		name string
		def  string
		dst  *time.Duration
		zero bool
	}{
		{"PROVIDER_TIMEOUT", "12s", &cfg.ProviderTimeout, false},
		{"THROTTLE_INTERVAL", "350ms", &cfg.ThrottleInterval, true},
		{"GEOCODE_CACHE_TTL", "6h", &cfg.GeocodeCacheTTL, false},
		{"SEARCH_CACHE_TTL", "10m", &cfg.SearchCacheTTL, false},
		{"SUGGEST_CACHE_TTL", "30m", &cfg.SuggestCacheTTL, false},
		{"REVERSE_CACHE_TTL", "1h", &cfg.ReverseCacheTTL, false},
		{"ROUTE_CACHE_TTL", "30m", &cfg.RouteCacheTTL, false},
	}
	for _, d := range durations {
		v, err := parseDuration(d.name, d.def, d.zero)
		if err != nil {
			return nil, err
		}
		*d.dst = v
	}

	threshold, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("CONFIDENCE_THRESHOLD", "0.18"), 64)
	if err != nil || threshold < 0 {
		return nil, errors.New("invalid CONFIDENCE_THRESHOLD")
	}
	cfg.ConfidenceThreshold = threshold

	center, ok := domain.ParseLatLon(sharedcfg.EnvOrDefault("DEFAULT_CENTER", "10.7769,106.7009"))
	if !ok {
		return nil, errors.New("invalid DEFAULT_CENTER: want \"lat,lon\"")
	}
	cfg.DefaultCenter = center

	cacheSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("CACHE_SIZE", "10000"))
	if err != nil || cacheSize <= 0 {
		return nil, errors.New("invalid CACHE_SIZE")
	}
	cfg.CacheSize = cacheSize

	switch cfg.CacheBackend {
	case CacheMemory, CacheBadger:
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q: want %s or %s", cfg.CacheBackend, CacheMemory, CacheBadger)
	}

	if cfg.BatchEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}

	return cfg, nil
}

// parseDuration reads a positive duration, or a non-negative one when
// allowZero is set.
func parseDuration(name, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}
