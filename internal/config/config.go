// config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"deco-planner/pkg/scuba"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	// Redis
	RedisURL      string `mapstructure:"redis_url" validate:"required"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
	StreamName    string `mapstructure:"redis_stream" validate:"required"`
	ConsumerGroup string `mapstructure:"redis_consumer_group" validate:"required"`

	// RethinkDB
	RethinkDBURL    string `mapstructure:"rethinkdb_url" validate:"required"`
	DBName          string `mapstructure:"db_name" validate:"required"`
	TaskTableName   string `mapstructure:"task_table_name" validate:"required"`
	ResultTableName string `mapstructure:"result_table_name" validate:"required"`

	// Server
	ServerPort string `mapstructure:"server_port" validate:"required"`
	HealthPort string `mapstructure:"health_port" validate:"required"`

	// Worker
	WorkerCount int           `mapstructure:"worker_count" validate:"gte=1"`
	TaskTimeout time.Duration `mapstructure:"task_timeout" validate:"gt=0"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"gte=1"`

	// Логирование
	LogLevel       string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogDevelopment bool   `mapstructure:"log_development"`

	// Параметры расчета по умолчанию для запросов без options/diver
	Planner scuba.Options `mapstructure:"planner"`
	Diver   scuba.Diver   `mapstructure:"diver"`
}

var defaultConfigPaths = []string{".", "./config", "/etc/deco-planner/"}

// Load читает конфигурацию из значений по умолчанию, config.yaml и окружения.
func Load() (*Config, error) {
	return load(viper.GetViper(), defaultConfigPaths...)
}

// LoadFile читает конфигурацию из указанного YAML файла. Пустой путь
// означает поиск config.yaml в стандартных каталогах.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		return load(v, defaultConfigPaths...)
	}
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	setDefaults(v)

	// Поиск config.yaml по каталогам только без явного файла:
	// SetConfigName сбрасывает путь, заданный SetConfigFile.
	v.SetConfigType("yaml")
	if len(paths) > 0 {
		v.SetConfigName("config")
		for _, path := range paths {
			v.AddConfigPath(path)
		}
	}

	// PLANNER_GF_LOW -> planner.gf_low
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения конфигурационного файла: %w", err)
		}
		// Файл не найден - используем значения по умолчанию и env
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("redis_url", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_stream", "plans-stream")
	v.SetDefault("redis_consumer_group", "plan-workers")
	v.SetDefault("rethinkdb_url", "localhost:28015")
	v.SetDefault("db_name", "deco_planner")
	v.SetDefault("task_table_name", "tasks")
	v.SetDefault("result_table_name", "results")
	v.SetDefault("server_port", ":8081")
	v.SetDefault("health_port", ":8082")
	v.SetDefault("worker_count", 2)
	v.SetDefault("task_timeout", 2*time.Minute)
	v.SetDefault("max_retries", 3)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_development", false)

	options := scuba.DefaultOptions()
	v.SetDefault("planner.altitude", options.Altitude)
	v.SetDefault("planner.salinity", int(options.Salinity))
	v.SetDefault("planner.gf_low", options.GfLow)
	v.SetDefault("planner.gf_high", options.GfHigh)
	v.SetDefault("planner.max_ppo2", options.MaxPpO2)
	v.SetDefault("planner.max_deco_ppo2", options.MaxDecoPpO2)
	v.SetDefault("planner.max_end", options.MaxEND)
	v.SetDefault("planner.oxygen_narcotic", options.OxygenNarcotic)
	v.SetDefault("planner.last_stop_depth", options.LastStopDepth)
	v.SetDefault("planner.deco_stop_distance", options.DecoStopDistance)
	v.SetDefault("planner.minimum_auto_stop_depth", options.MinimumAutoStopDepth)
	v.SetDefault("planner.safety_stop", int(options.SafetyStop))
	v.SetDefault("planner.descent_speed", options.DescentSpeed)
	v.SetDefault("planner.ascent_speed_50perc", options.AscentSpeed50perc)
	v.SetDefault("planner.ascent_speed_50perc_to_6m", options.AscentSpeed50percTo6m)
	v.SetDefault("planner.ascent_speed_6m", options.AscentSpeed6m)
	v.SetDefault("planner.problem_solving_duration", options.ProblemSolvingDuration)
	v.SetDefault("planner.gas_switch_duration", options.GasSwitchDuration)

	diver := scuba.DefaultDiver()
	v.SetDefault("diver.sac", diver.SAC)
	v.SetDefault("diver.max_ppo2", diver.MaxPpO2)
	v.SetDefault("diver.max_deco_ppo2", diver.MaxDecoPpO2)
}

var validate = validator.New()

// Validate проверяет настройки сервисов и параметры расчета по умолчанию.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}
	if err := c.Planner.Validate(); err != nil {
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}
	if err := c.Diver.Validate(); err != nil {
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}
	return nil
}
