package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppCfg struct{ Env, Port string }
type DBCfg struct{ DSN string }

type RedisCfg struct {
	Addr         string
	FlagCacheTTL time.Duration
}

// GatewayCfg holds the per-provider transport settings: where to send
// requests and what key to sign them with.
type GatewayCfg struct {
	BaseURL    string
	Secret     string
	TimeoutSec int
}

type WorkerCfg struct {
	PollEvery time.Duration
	BatchSize int
}

type Cfg struct {
	App       AppCfg
	DB        DBCfg
	Redis     RedisCfg
	PayPal    GatewayCfg
	SaySwitch GatewayCfg
	Worker    WorkerCfg
}

func Load() Cfg {
	// .env is optional; env vars win either way.
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", "sandbox")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("FLAG_CACHE_TTL_SEC", 30)
	viper.SetDefault("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com/v1/billing")
	viper.SetDefault("PAYPAL_TIMEOUT_SEC", 30)
	viper.SetDefault("SAYSWITCH_BASE_URL", "https://backendapi.sayswitchgroup.com/api/v1")
	viper.SetDefault("SAYSWITCH_TIMEOUT_SEC", 30)
	viper.SetDefault("EVENT_POLL_SEC", 2)
	viper.SetDefault("EVENT_BATCH_SIZE", 50)

	cfg := Cfg{
		App: AppCfg{
			Env:  viper.GetString("APP_ENV"),
			Port: viper.GetString("APP_PORT"),
		},
		DB: DBCfg{DSN: viper.GetString("DB_DSN")},
		Redis: RedisCfg{
			Addr:         viper.GetString("REDIS_ADDR"),
			FlagCacheTTL: time.Duration(viper.GetInt("FLAG_CACHE_TTL_SEC")) * time.Second,
		},
		PayPal: GatewayCfg{
			BaseURL:    strings.TrimRight(viper.GetString("PAYPAL_BASE_URL"), "/"),
			Secret:     viper.GetString("PAYPAL_SECRET"),
			TimeoutSec: viper.GetInt("PAYPAL_TIMEOUT_SEC"),
		},
		SaySwitch: GatewayCfg{
			BaseURL:    strings.TrimRight(viper.GetString("SAYSWITCH_BASE_URL"), "/"),
			Secret:     viper.GetString("SAYSWITCH_SECRET"),
			TimeoutSec: viper.GetInt("SAYSWITCH_TIMEOUT_SEC"),
		},
		Worker: WorkerCfg{
			PollEvery: time.Duration(viper.GetInt("EVENT_POLL_SEC")) * time.Second,
			BatchSize: viper.GetInt("EVENT_BATCH_SIZE"),
		},
	}

	// Fail fast on required settings
	if cfg.DB.DSN == "" {
		log.Fatal().Msg("DB_DSN is required")
	}

	return cfg
}
