// Package config loads the monitor configuration from ~/.tempwatch plus
// environment overrides, with defaults mirroring the deployed firmware.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Port     string `mapstructure:"port"`     // serial device, empty means use last/first available
	BaudRate int    `mapstructure:"baud_rate"`
	Sensors  int    `mapstructure:"sensors"`  // thermistor count N
	Protocol string `mapstructure:"protocol"` // wire grammar: compact or labeled

	MinValue float64 `mapstructure:"min_value"` // plausible temperature range
	MaxValue float64 `mapstructure:"max_value"`

	CautionAt    float64       `mapstructure:"caution_threshold"`
	WarnAt       float64       `mapstructure:"warning_threshold"`
	CriticalAt   float64       `mapstructure:"critical_threshold"`
	CautionEvery time.Duration `mapstructure:"caution_interval"`
	WarnEvery    time.Duration `mapstructure:"warning_interval"`

	StaleAfter   time.Duration `mapstructure:"stale_threshold"`
	WatchdogPoll time.Duration `mapstructure:"watchdog_poll"`

	Retention      time.Duration `mapstructure:"retention"`       // history window
	SampleInterval time.Duration `mapstructure:"sample_interval"` // expected cycle period
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`

	MetricsAddr   string `mapstructure:"metrics_addr"` // empty disables the exporter
	SpeechCommand string `mapstructure:"speech_command"`
}

// Capacity derives the per-sensor ring capacity from the retention window
// and the expected sampling interval.
func (c *Config) Capacity() int {
	if c.SampleInterval <= 0 {
		return 1
	}
	n := int(c.Retention / c.SampleInterval)
	if n < 1 {
		n = 1
	}
	return n
}

// Load reads the configuration file, applying defaults for anything
// missing. A missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".tempwatch"))
	}

	v.SetEnvPrefix("tempwatch")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "")
	v.SetDefault("baud_rate", 115200)
	v.SetDefault("sensors", 8)
	v.SetDefault("protocol", "compact")
	v.SetDefault("min_value", -20.0)
	v.SetDefault("max_value", 150.0)
	v.SetDefault("caution_threshold", 80.0)
	v.SetDefault("warning_threshold", 90.0)
	v.SetDefault("critical_threshold", 100.0)
	v.SetDefault("caution_interval", "60s")
	v.SetDefault("warning_interval", "10s")
	v.SetDefault("stale_threshold", "2500ms")
	v.SetDefault("watchdog_poll", "100ms")
	v.SetDefault("retention", "10m")
	v.SetDefault("sample_interval", "1s")
	v.SetDefault("read_timeout", "1s")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("speech_command", "")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Sensors < 1 {
		return fmt.Errorf("sensors must be at least 1, got %d", c.Sensors)
	}
	if c.MinValue >= c.MaxValue {
		return fmt.Errorf("min_value %v must be below max_value %v", c.MinValue, c.MaxValue)
	}
	if !(c.CautionAt < c.WarnAt && c.WarnAt < c.CriticalAt) {
		return fmt.Errorf("thresholds must be ordered caution < warning < critical, got %v/%v/%v",
			c.CautionAt, c.WarnAt, c.CriticalAt)
	}
	if c.StaleAfter <= 0 {
		return fmt.Errorf("stale_threshold must be positive, got %v", c.StaleAfter)
	}
	if c.Retention <= 0 || c.SampleInterval <= 0 {
		return fmt.Errorf("retention %v and sample_interval %v must be positive", c.Retention, c.SampleInterval)
	}
	return nil
}
