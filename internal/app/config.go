package app

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/businessdate"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/nextcheck"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	RedisAddr   string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	TZName             string `envconfig:"TZ_NAME" default:"Europe/Kiev"`
	SandboxMode        bool   `envconfig:"SANDBOX_MODE" default:"false"`
	SandboxAccelerator int    `envconfig:"SANDBOX_ACCELERATOR" default:"1"`
	HolidaysFile       string `envconfig:"HOLIDAYS_FILE"`

	ComplaintStandStill            time.Duration `envconfig:"COMPLAINT_STAND_STILL" default:"72h"`
	ComplaintStandStillWorkingDays bool          `envconfig:"COMPLAINT_STAND_STILL_WORKING_DAYS" default:"false"`

	WorkerConcurrency int           `envconfig:"WORKER_CONCURRENCY" default:"5"`
	AwardingHintTTL   time.Duration `envconfig:"AWARDING_HINT_TTL" default:"720h"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SandboxAccelerator < 1 {
		return nil, errors.New("sandbox accelerator must be at least 1")
	}
	if cfg.ComplaintStandStill < 0 {
		return nil, errors.New("complaint stand-still must not be negative")
	}
	if cfg.WorkerConcurrency < 1 {
		cfg.WorkerConcurrency = 1
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Location resolves TZName.
func (c *Config) Location() (*time.Location, error) {
	if c == nil || c.TZName == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.TZName)
	if err != nil {
		return nil, fmt.Errorf("app: timezone %q: %w", c.TZName, err)
	}
	return loc, nil
}

// BusinessDate builds the immutable calculator configuration. The holiday
// calendar is empty when HOLIDAYS_FILE is unset.
func (c *Config) BusinessDate() (businessdate.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return businessdate.Config{}, err
	}
	var cal *businessdate.Calendar
	if c.HolidaysFile != "" {
		cal, err = businessdate.LoadCalendar(c.HolidaysFile)
	} else {
		cal, err = businessdate.NewCalendar()
	}
	if err != nil {
		return businessdate.Config{}, fmt.Errorf("app: holidays: %w", err)
	}
	return businessdate.Config{
		Location:           loc,
		Sandbox:            c.SandboxMode,
		SandboxAccelerator: c.SandboxAccelerator,
		Calendar:           cal,
	}, nil
}

// NextCheckPolicy applies the complaint settings on top of the default policy.
func (c *Config) NextCheckPolicy(loc *time.Location) nextcheck.Policy {
	policy := nextcheck.DefaultPolicy(loc)
	if c != nil {
		policy.ComplaintStandStill = c.ComplaintStandStill
		policy.ComplaintStandStillWorkingDays = c.ComplaintStandStillWorkingDays
	}
	return policy
}
