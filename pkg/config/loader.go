package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu     sync.RWMutex
	loaded = make(map[string]any)

	dotenvOnce sync.Once
)

// Load populates the provided struct from environment variables using its
// `env` field tags. The default .env file is loaded once per process before
// the first parse; a missing .env file is not an error.
//
// Each configuration type is parsed at most once for the lifetime of the
// process; subsequent calls for the same type return the cached copy, so
// components can load their own config independently without re-reading the
// environment.
//
// Example:
//
//	type Config struct {
//		ChannelToken string        `env:"LINE_CHANNEL_TOKEN,required"`
//		Timeout      time.Duration `env:"LINE_TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// The .env file is optional; real environments set vars directly.
		_ = godotenv.Load()
	})

	key := typeName[T]()

	mu.RLock()
	cached, ok := loaded[key]
	mu.RUnlock()
	if ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	mu.Lock()
	// Store a copy so callers cannot mutate the cached value.
	loaded[key] = *v
	mu.Unlock()

	return nil
}

// MustLoad works like Load but panics on failure. Intended for process
// startup where a missing required variable should prevent boot.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// Reset clears the cache of loaded configurations. Intended for tests that
// need to re-parse the environment.
func Reset() {
	mu.Lock()
	loaded = make(map[string]any)
	mu.Unlock()
}

func typeName[T any]() string {
	t := reflect.TypeOf(*new(T))
	if t == nil {
		return fmt.Sprintf("%T", *new(T))
	}
	return t.String()
}
