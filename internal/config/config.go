package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/pairplay/sync-server-go/internal/model"
)

type Config struct {
	Port                 int    `env:"PORT" envDefault:"8080"`
	CachePath            string `env:"CACHE_PATH" envDefault:"sessions.db"`
	RedisURL             string `env:"REDIS_URL,required"`
	BackendBaseURL       string `env:"BACKEND_BASE_URL,required"`
	LedgerBaseURL        string `env:"LEDGER_BASE_URL,required"`
	DeviceParticipantID  string `env:"DEVICE_PARTICIPANT_ID,required"`
	PartnerParticipantID string `env:"PARTNER_PARTICIPANT_ID,required"`
	WordListPath         string `env:"WORDLIST_PATH"`
	ArbiterPollDelayMS   int    `env:"ARBITER_POLL_DELAY_MS" envDefault:"2000"`
	SyncPollIntervalMS   int    `env:"SYNC_POLL_INTERVAL_MS" envDefault:"15000"`
	LogLevel             string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) ArbiterPollDelay() time.Duration {
	return time.Duration(c.ArbiterPollDelayMS) * time.Millisecond
}

func (c *Config) SyncPollInterval() time.Duration {
	return time.Duration(c.SyncPollIntervalMS) * time.Millisecond
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// PairKey is the canonical shared-store key for this device's couple.
func (c *Config) PairKey() string {
	return model.PairKey(c.DeviceParticipantID, c.PartnerParticipantID)
}

func (c *Config) Validate() error {
	if c.DeviceParticipantID == c.PartnerParticipantID {
		return fmt.Errorf("DEVICE_PARTICIPANT_ID and PARTNER_PARTICIPANT_ID must differ")
	}
	if c.ArbiterPollDelayMS < 0 || c.SyncPollIntervalMS <= 0 {
		return fmt.Errorf("poll intervals must be positive")
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
