// Package config loads service settings from .env files and the process
// environment.
package config

import (
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/kataras/golog"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

type Config struct {
	// Seed of the first session, zero means "derive from the clock".
	Seed uint64 `mapstructure:"RNG_SEED"`

	ListenAddr     string `mapstructure:"LISTEN_ADDR"`
	ConsumerFEPort string `mapstructure:"CONSUMER_FE_PORT"`

	AMQPURL      string `mapstructure:"AMQP_URL"`
	AMQPExchange string `mapstructure:"AMQP_EXCHANGE"`

	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBAddress  string `mapstructure:"DB_ADDRESS"`
	DBName     string `mapstructure:"DB_NAME"`

	DrawWorkers  uint `mapstructure:"DRAW_WORKERS"`
	DrawMaxCount int  `mapstructure:"DRAW_MAX_COUNT"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
}

func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		ConsumerFEPort: "8081",
		AMQPExchange:   "draw_batches",
		DrawWorkers:    1,
		DrawMaxCount:   4096,
		LogLevel:       "info",
	}
}

// Load reads the given .env files (".env" if none are given), lets the process
// environment override them and decodes the result over Default. Missing
// files are skipped.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	values := map[string]string{}
	for _, file := range files {
		fileValues, err := godotenv.Read(file)
		if errors.Is(err, os.ErrNotExist) {
			golog.Debugf("no env file at %s", file)
			continue
		}
		if err != nil {
			return Config{}, errors.Wrapf(err, "reading env file %s", file)
		}

		for k, v := range fileValues {
			values[k] = v
		}
	}

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			values[k] = v
		}
	}

	return FromMap(values)
}

// FromMap decodes string key/value pairs over Default.
func FromMap(values map[string]string) (Config, error) {
	cfg := Default()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, err
	}

	if err = decoder.Decode(values); err != nil {
		return Config{}, errors.Wrap(err, "decoding config")
	}

	if cfg.DrawWorkers == 0 {
		return Config{}, errors.New("DRAW_WORKERS must be at least 1")
	}

	if cfg.DrawMaxCount <= 0 {
		return Config{}, errors.New("DRAW_MAX_COUNT must be positive")
	}

	return cfg, nil
}

// ApplyLogLevel sets the golog level from LOG_LEVEL.
func (cfg Config) ApplyLogLevel() {
	golog.SetLevel(cfg.LogLevel)
}

func (cfg Config) MySQL() *mysql.Config {
	dbConfig := mysql.NewConfig()
	dbConfig.User = cfg.DBUser
	dbConfig.Passwd = cfg.DBPassword
	dbConfig.Addr = cfg.DBAddress
	dbConfig.DBName = cfg.DBName
	dbConfig.Collation = "utf8mb4_general_ci"
	dbConfig.Net = "tcp"
	dbConfig.AllowNativePasswords = true
	dbConfig.ParseTime = true

	return dbConfig
}
