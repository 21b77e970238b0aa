package config

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/theapemachine/errnie"
	"github.com/theapemachine/qbloch"
)

// Config holds the service configuration of qblochd.
type Config struct {
	Addr string `mapstructure:"addr"`
	Env  string `mapstructure:"env"`

	DefaultAngle  float64 `mapstructure:"default_angle"`
	MaxTrials     int     `mapstructure:"max_trials"`
	DefaultTrials int     `mapstructure:"default_trials"`

	SessionTTL  time.Duration `mapstructure:"session_ttl"`
	MaxSessions int           `mapstructure:"max_sessions"`

	// ShotBudget is the bucket size of sampled shots; ShotRefill is the
	// number of shots returned to the bucket per second.
	ShotBudget int     `mapstructure:"shot_budget"`
	ShotRefill float64 `mapstructure:"shot_refill"`
}

// Engine returns the engine configuration derived from c.
func (c Config) Engine() *qbloch.Config {
	config := qbloch.NewConfig()
	config.DefaultAngle = c.DefaultAngle
	config.MaxTrials = c.MaxTrials
	config.DefaultTrials = c.DefaultTrials
	return config
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("addr must not be empty")
	case math.IsNaN(c.DefaultAngle) || math.IsInf(c.DefaultAngle, 0):
		return fmt.Errorf("default_angle must be finite, got %v", c.DefaultAngle)
	case c.MaxTrials <= 0:
		return fmt.Errorf("max_trials must be positive, got %d", c.MaxTrials)
	case c.DefaultTrials < 0 || c.DefaultTrials > c.MaxTrials:
		return fmt.Errorf("default_trials must be within [0, %d], got %d", c.MaxTrials, c.DefaultTrials)
	case c.ShotBudget < c.MaxTrials:
		return fmt.Errorf("shot_budget %d cannot cover max_trials %d", c.ShotBudget, c.MaxTrials)
	case c.ShotRefill <= 0:
		return fmt.Errorf("shot_refill must be positive, got %v", c.ShotRefill)
	}
	return nil
}

/*
Load builds the configuration from, in increasing priority: defaults, an
optional qbloch.{yaml,toml,json} config file, a .env file, QBLOCH_* environment
variables and the -addr flag. The -config flag names an explicit config file,
which then must exist.
*/
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("qblochd", flag.ContinueOnError)
	addr := fs.String("addr", "", "listen address, overrides QBLOCH_ADDR")
	file := fs.String("config", "", "path to a config file")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(); err != nil {
		errnie.Debug("no .env loaded: %v", err)
	}

	engine := qbloch.NewConfig()

	v := viper.New()
	v.SetDefault("addr", ":8080")
	v.SetDefault("env", "development")
	v.SetDefault("default_angle", engine.DefaultAngle)
	v.SetDefault("max_trials", engine.MaxTrials)
	v.SetDefault("default_trials", engine.DefaultTrials)
	v.SetDefault("session_ttl", 30*time.Minute)
	v.SetDefault("max_sessions", 1024)
	v.SetDefault("shot_budget", 10*engine.MaxTrials)
	v.SetDefault("shot_refill", float64(engine.MaxTrials))

	if *file != "" {
		v.SetConfigFile(*file)
	} else {
		v.SetConfigName("qbloch")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/qbloch")
	}

	v.SetEnvPrefix("QBLOCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if *file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	if *addr != "" {
		v.Set("addr", *addr)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}
