package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Money values are in minor currency units.
type Config struct {
	Env         string // application environment (e.g. "dev", "prod")
	Port        string // HTTP port to listen on
	LogLevel    string // logrus level name
	StoreDriver string // "mysql" or "memory"

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	CatalogFile string // JSON catalog seeded into the memory store

	JWTSecret string // secret used to verify access tokens

	LockWaitTimeout time.Duration // bound on waiting for an inventory lock
	ServiceFee      int64         // flat service fee added to every booking
	DefaultCurrency string        // currency for catalog entries that carry none
	MaxStayNights   int           // longest hotel stay accepted, in nights

	CancellationFlatFee       int64            // flat fee charged 72h or more before departure
	CancellationFlatFeeByType map[string]int64 // per resource type overrides
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The DB_* variables
// are only required for the mysql store.
func Load() Config {
	cfg := Config{
		Env:         must("APP_ENV"),
		Port:        must("APP_PORT"),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		StoreDriver: strings.ToLower(envStr("STORE_DRIVER", StoreMySQL)),
		CatalogFile: os.Getenv("CATALOG_FILE"),
		JWTSecret:   must("JWT_SECRET"),

		LockWaitTimeout: envDur("LOCK_WAIT_TIMEOUT", 5*time.Second),
		ServiceFee:      envInt64("SERVICE_FEE_CENTS", 0),
		DefaultCurrency: envStr("DEFAULT_CURRENCY", "INR"),
		MaxStayNights:   envInt("MAX_STAY_NIGHTS", 30),

		CancellationFlatFee:       envInt64("CANCELLATION_FLAT_FEE_CENTS", 10000),
		CancellationFlatFeeByType: map[string]int64{},
	}
	for _, rt := range []string{"hotel", "flight", "train", "bus"} {
		if v := envInt64("CANCELLATION_FLAT_FEE_CENTS_"+strings.ToUpper(rt), -1); v >= 0 {
			cfg.CancellationFlatFeeByType[rt] = v
		}
	}

	switch cfg.StoreDriver {
	case StoreMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	case StoreMemory:
	default:
		log.Fatalf("invalid STORE_DRIVER: %q", cfg.StoreDriver)
	}
	if cfg.ServiceFee < 0 {
		log.Fatalf("invalid SERVICE_FEE_CENTS: must not be negative")
	}
	if cfg.MaxStayNights < 1 {
		log.Fatalf("invalid MAX_STAY_NIGHTS: must be at least 1")
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envInt64(k string, d int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", k, v)
	}
	return n
}
