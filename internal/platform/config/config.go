package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"livepolls"`
	HTTPPort    string `envconfig:"HTTP_PORT" default:"8080"`

	PostgresDSN string `envconfig:"POSTGRES_DSN"`
	// LEDGER_PATH is the badger directory backing the score ledger.
	LedgerPath  string `envconfig:"LEDGER_PATH" default:"./data/ledger"`

	// USE_MEMORY_STORES runs both modules on in-memory adapters, for local
	// development without Postgres or a ledger directory.
	UseMemoryStores bool `envconfig:"USE_MEMORY_STORES" default:"false"`

	SubscriberBuffer int `envconfig:"SUBSCRIBER_BUFFER" default:"16"`

	EnableLedgerReconciler bool          `envconfig:"ENABLE_LEDGER_RECONCILER" default:"true"`
	ReconcileInterval      time.Duration `envconfig:"RECONCILE_INTERVAL" default:"1m"`
}

func Load() (Config, error) {
	// A missing .env file is fine; real deployments set the environment.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment config: %w", err)
	}
	return cfg, nil
}
