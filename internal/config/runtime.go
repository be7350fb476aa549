package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// RuntimeConfig holds settings that can change without a restart.
type RuntimeConfig struct {
	Log       LogRuntimeConfig       `mapstructure:"log"`
	RateLimit RateLimitRuntimeConfig `mapstructure:"ratelimit"`
}

type LogRuntimeConfig struct {
	Level string `mapstructure:"level"`
}

type RateLimitRuntimeConfig struct {
	Login TokenBucketConfig `mapstructure:"login"`
}

// TokenBucketConfig is a refill rate in tokens per second and a bucket size.
type TokenBucketConfig struct {
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		RateLimit: RateLimitRuntimeConfig{
			Login: TokenBucketConfig{Rate: 0.2, Burst: 5},
		},
	}
}

type RuntimeHolder struct {
	current atomic.Value // holds RuntimeConfig

	mu          sync.Mutex
	subscribers []func(RuntimeConfig)
}

// NewRuntimeHolder reads membership.yml from the standard locations. A missing
// file is not an error; defaults and MEMBERSHIP_* env overrides apply.
func NewRuntimeHolder() (*RuntimeHolder, error) {
	v := viper.New()
	v.SetConfigName("membership")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/membership")
	v.AddConfigPath(".")
	return newRuntimeHolder(v)
}

// NewRuntimeHolderFromFile reads and watches a specific file.
func NewRuntimeHolderFromFile(path string) (*RuntimeHolder, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return newRuntimeHolder(v)
}

func newRuntimeHolder(v *viper.Viper) (*RuntimeHolder, error) {
	defaults := DefaultRuntimeConfig()
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("ratelimit.login.rate", defaults.RateLimit.Login.Rate)
	v.SetDefault("ratelimit.login.burst", defaults.RateLimit.Login.Burst)

	v.SetEnvPrefix("MEMBERSHIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	watch := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read runtime config: %w", err)
		}
		watch = false
	}

	cfg, err := decodeRuntimeConfig(v)
	if err != nil {
		return nil, err
	}

	holder := &RuntimeHolder{}
	holder.current.Store(cfg)

	if watch {
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodeRuntimeConfig(v)
			if err != nil {
				zap.L().Warn("runtime config reload ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.store(updated)
			zap.L().Info("runtime config reloaded", zap.String("file", e.Name))
		})
		v.WatchConfig()
	}

	return holder, nil
}

func decodeRuntimeConfig(v *viper.Viper) (RuntimeConfig, error) {
	var cfg RuntimeConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return RuntimeConfig{}, err
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if err := validateRuntimeConfig(cfg); err != nil {
		return RuntimeConfig{}, err
	}
	return cfg, nil
}

func validateRuntimeConfig(cfg RuntimeConfig) error {
	if cfg.RateLimit.Login.Rate <= 0 {
		return errors.New("ratelimit.login.rate must be positive")
	}
	if cfg.RateLimit.Login.Burst <= 0 {
		return errors.New("ratelimit.login.burst must be positive")
	}
	return nil
}

// Get returns the current snapshot.
func (h *RuntimeHolder) Get() RuntimeConfig {
	return h.current.Load().(RuntimeConfig)
}

// Subscribe registers fn to run after every successful reload.
func (h *RuntimeHolder) Subscribe(fn func(RuntimeConfig)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers = append(h.subscribers, fn)
}

func (h *RuntimeHolder) store(cfg RuntimeConfig) {
	h.current.Store(cfg)

	h.mu.Lock()
	subs := append([]func(RuntimeConfig){}, h.subscribers...)
	h.mu.Unlock()
	for _, fn := range subs {
		fn(cfg)
	}
}
