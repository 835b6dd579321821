// Package config loads daemon configuration from environment variables,
// optionally overlaid by a YAML file for installs managed by config
// management rather than systemd environment files.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API  APIConfig
	Poll PollConfig
	HTTP HTTPConfig
	MQTT MQTTConfig
	GPIO GPIOConfig
}

type APIConfig struct {
	BaseURL        string        `envconfig:"SALES_API_BASE" default:"https://evaluacion1controldeventa-production.up.railway.app/api/"`
	Username       string        `envconfig:"SALES_API_USERNAME" default:"admin"`
	Password       string        `envconfig:"SALES_API_PASSWORD" default:"admin"`
	TokenTTL       time.Duration `envconfig:"SALES_TOKEN_TTL" default:"15m"`
	TokenMargin    time.Duration `envconfig:"SALES_TOKEN_MARGIN" default:"3m"`
	RequestTimeout time.Duration `envconfig:"SALES_REQUEST_TIMEOUT" default:"3s"`
}

type PollConfig struct {
	Interval  time.Duration `envconfig:"POLL_INTERVAL" default:"2s"`
	Heartbeat time.Duration `envconfig:"HEARTBEAT_INTERVAL" default:"15m"`
}

type HTTPConfig struct {
	Addr string `envconfig:"HTTP_ADDR" default:":80"`
}

type MQTTConfig struct {
	// Broker may be empty to disable the MQTT channel entirely.
	Broker string `envconfig:"MQTT_BROKER" default:"tcp://localhost:1883"`
}

type GPIOConfig struct {
	PinVibration int `envconfig:"PIN_VIBRATION" default:"13"`
	PinLED       int `envconfig:"PIN_LED" default:"15"`
	PinIR        int `envconfig:"PIN_IR" default:"4"`
}

// fileConfig mirrors Config with pointer fields so an overlay file only
// overrides the keys it actually sets.
type fileConfig struct {
	API struct {
		BaseURL        *string        `yaml:"base_url"`
		Username       *string        `yaml:"username"`
		Password       *string        `yaml:"password"`
		TokenTTL       *time.Duration `yaml:"token_ttl"`
		TokenMargin    *time.Duration `yaml:"token_margin"`
		RequestTimeout *time.Duration `yaml:"request_timeout"`
	} `yaml:"api"`
	Poll struct {
		Interval  *time.Duration `yaml:"interval"`
		Heartbeat *time.Duration `yaml:"heartbeat"`
	} `yaml:"poll"`
	HTTP struct {
		Addr *string `yaml:"addr"`
	} `yaml:"http"`
	MQTT struct {
		Broker *string `yaml:"broker"`
	} `yaml:"mqtt"`
	GPIO struct {
		PinVibration *int `yaml:"pin_vibration"`
		PinLED       *int `yaml:"pin_led"`
		PinIR        *int `yaml:"pin_ir"`
	} `yaml:"gpio"`
}

// Load builds the configuration from env vars and defaults. If path is
// non-empty the YAML file there is overlaid on top; file values win.
func Load(path string) (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env config: %w", err)
	}

	if path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.API.BaseURL, fc.API.BaseURL)
	setString(&cfg.API.Username, fc.API.Username)
	setString(&cfg.API.Password, fc.API.Password)
	setDuration(&cfg.API.TokenTTL, fc.API.TokenTTL)
	setDuration(&cfg.API.TokenMargin, fc.API.TokenMargin)
	setDuration(&cfg.API.RequestTimeout, fc.API.RequestTimeout)
	setDuration(&cfg.Poll.Interval, fc.Poll.Interval)
	setDuration(&cfg.Poll.Heartbeat, fc.Poll.Heartbeat)
	setString(&cfg.HTTP.Addr, fc.HTTP.Addr)
	setString(&cfg.MQTT.Broker, fc.MQTT.Broker)
	setInt(&cfg.GPIO.PinVibration, fc.GPIO.PinVibration)
	setInt(&cfg.GPIO.PinLED, fc.GPIO.PinLED)
	setInt(&cfg.GPIO.PinIR, fc.GPIO.PinIR)
	return nil
}

func (c Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base url must not be empty")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.Poll.Interval)
	}
	if c.API.TokenMargin >= c.API.TokenTTL {
		return fmt.Errorf("token margin %v must be smaller than ttl %v", c.API.TokenMargin, c.API.TokenTTL)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *time.Duration) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
