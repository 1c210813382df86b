package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Discord struct {
		Token                string   `env:"DISCORD_TOKEN,required"`
		GuildID              string   `env:"GUILD_ID"`
		GiveawayChannelID    string   `env:"GIVEAWAY_CHANNEL_ID"`
		ManagementChannelID  string   `env:"MANAGEMENT_CHANNEL_ID"`
		StaffReportChannelID string   `env:"STAFF_REPORT_CHANNEL_ID"`
		MutualRoleID         string   `env:"MUTUAL_GIVEAWAYS_ROLE_ID"`
		StaffRoleIDs         []string `env:"STAFF_ROLE_IDS" envSeparator:","`
	}

	Scheduler struct {
		// Minimum gap between scheduling and posting, so the approval
		// write settles before the deferred task fires.
		MinLeadSec int `env:"SCHEDULER_MIN_LEAD_SEC" envDefault:"60"`
		// Periodic rescan of approved records; the correctness backstop
		// for in-memory timers.
		SweepIntervalSec int `env:"SCHEDULER_SWEEP_INTERVAL_SEC" envDefault:"300"`
	}

	Quota struct {
		WeeklyMinimum int `env:"WEEKLY_QUOTA" envDefault:"2"`
		InvitePayRate int `env:"INVITE_PAY_RATE" envDefault:"10"` // Robux per invite
	}
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c *Config) MinLead() time.Duration {
	return time.Duration(c.Scheduler.MinLeadSec) * time.Second
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Scheduler.SweepIntervalSec) * time.Second
}

func Load() (*Config, error) {
	// Missing .env is fine; in production the variables are set directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
