package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Platform PlatformConfig
	Poll     PollConfig
	Upload   UploadConfig
	Detector DetectorConfig
	Logger   LoggerConfig
}

type PlatformConfig struct {
	APIURL       string
	InferenceURL string
	Timeout      time.Duration
}

type PollConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

type UploadConfig struct {
	Workers int
}

type DetectorConfig struct {
	Python string
	// Worker is an external worker script; empty uses the embedded one.
	Worker string
}

type LoggerConfig struct {
	Level  string
	Format string
}

const envPrefix = "RFDETR"

func defaults(v *viper.Viper) {
	v.SetDefault("PLATFORM_API_URL", "https://api.roboflow.com")
	v.SetDefault("PLATFORM_INFERENCE_URL", "https://detect.roboflow.com")
	v.SetDefault("PLATFORM_TIMEOUT", "5m")
	v.SetDefault("POLL_INTERVAL", "2s")
	v.SetDefault("POLL_TIMEOUT", "10m")
	v.SetDefault("UPLOAD_WORKERS", 10)
	v.SetDefault("DETECTOR_PYTHON", "python3")
	v.SetDefault("DETECTOR_WORKER", "")
	v.SetDefault("LOGGER_LEVEL", "info")
	v.SetDefault("LOGGER_FORMAT", "text")
}

// Load reads defaults, then the optional YAML file, then RFDETR_* environment
// variables. Later sources win.
func Load(file string) (*Config, error) {
	v := viper.New()
	defaults(v)

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	// Env
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	platformTimeout, err := duration(v, "PLATFORM_TIMEOUT")
	if err != nil {
		return nil, err
	}
	pollInterval, err := duration(v, "POLL_INTERVAL")
	if err != nil {
		return nil, err
	}
	pollTimeout, err := duration(v, "POLL_TIMEOUT")
	if err != nil {
		return nil, err
	}

	workers := v.GetInt("UPLOAD_WORKERS")
	if workers <= 0 {
		workers = 10
	}

	cfg := &Config{
		Platform: PlatformConfig{
			APIURL:       strings.TrimRight(v.GetString("PLATFORM_API_URL"), "/"),
			InferenceURL: strings.TrimRight(v.GetString("PLATFORM_INFERENCE_URL"), "/"),
			Timeout:      platformTimeout,
		},
		Poll: PollConfig{
			Interval: pollInterval,
			Timeout:  pollTimeout,
		},
		Upload: UploadConfig{
			Workers: workers,
		},
		Detector: DetectorConfig{
			Python: v.GetString("DETECTOR_PYTHON"),
			Worker: v.GetString("DETECTOR_WORKER"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}

	return cfg, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
