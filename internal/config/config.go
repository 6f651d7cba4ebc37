package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dkeye/rclass/internal/adapters/rtc"
	"github.com/dkeye/rclass/internal/adapters/store/postgres"
	"github.com/dkeye/rclass/internal/core"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StoreBadger   = "badger"
	StorePostgres = "postgres"
)

type Config struct {
	Mode           string        `mapstructure:"mode" validate:"oneof=debug release test"`
	Port           int           `mapstructure:"port" validate:"gt=0,lte=65535"`
	StaticPath     string        `mapstructure:"static_path"`
	ReadLimit      int64         `mapstructure:"read_limit" validate:"gt=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	Secret         string        `mapstructure:"secret" validate:"required,min=16"`
	LogLevel       string        `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`

	Signal     Signal                  `mapstructure:"signal"`
	Media      Media                   `mapstructure:"media"`
	Store      Store                   `mapstructure:"store"`
	Attendance domain.AttendancePolicy `mapstructure:"attendance"`
	Chat       Chat                    `mapstructure:"chat"`
}

type Signal struct {
	SendBuffer int `mapstructure:"send_buffer" validate:"gt=0"`
	// SlowConsumer is what happens to a connection whose send queue is full.
	SlowConsumer string `mapstructure:"slow_consumer" validate:"oneof=kick drop"`
}

type Media struct {
	rtc.Config `mapstructure:",squash"`
	Codecs     []core.Codec `mapstructure:"codecs" validate:"min=1,dive"`
}

type Store struct {
	Driver     string          `mapstructure:"driver" validate:"oneof=memory badger postgres"`
	BadgerPath string          `mapstructure:"badger_path" validate:"required_if=Driver badger"`
	Postgres   postgres.Config `mapstructure:"postgres" validate:"-"`
}

type Chat struct {
	RateLimit    int           `mapstructure:"rate_limit" validate:"gt=0"`
	RateInterval time.Duration `mapstructure:"rate_interval" validate:"gt=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("request_timeout", "15s")
	v.SetDefault("log_level", "info")
	v.SetDefault("secret", "")

	v.SetDefault("signal.send_buffer", 64)
	v.SetDefault("signal.slow_consumer", "kick")

	v.SetDefault("media.ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("media.udp_port_min", 40000)
	v.SetDefault("media.udp_port_max", 40100)
	v.SetDefault("media.public_ips", []string{})
	v.SetDefault("media.codecs", []map[string]any{
		{"kind": "audio", "mime_type": "audio/opus", "clock_rate": 48000, "channels": 2, "payload_type": 111, "fmtp_line": "minptime=10;useinbandfec=1"},
		{"kind": "video", "mime_type": "video/VP8", "clock_rate": 90000, "payload_type": 96},
	})

	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.badger_path", "./data/badger")
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.max_conns", 10)
	v.SetDefault("store.postgres.max_conn_lifetime", "1h")
	v.SetDefault("store.postgres.application_name", "rclass")

	p := domain.DefaultPolicy()
	v.SetDefault("attendance.min_part", p.MinPart)
	v.SetDefault("attendance.max_noappear", p.MaxNoAppear)
	v.SetDefault("attendance.start_late", p.StartLate)
	v.SetDefault("attendance.early_exit", p.EarlyExit)

	v.SetDefault("chat.rate_limit", 5)
	v.SetDefault("chat.rate_interval", "1s")
}

// Load reads config/config.<CONFIG_ENV>.yaml (dev by default). Every key can
// be overridden from the environment, e.g. RCLASS_STORE_DRIVER.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile is Load with an explicit file. A missing file is not an error;
// defaults and the environment still apply.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("RCLASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("config loaded")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Store.Driver == StorePostgres {
		if err := validate.Struct(c.Store.Postgres); err != nil {
			return fmt.Errorf("invalid postgres config: %w", err)
		}
	}
	return nil
}
