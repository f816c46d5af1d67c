package config

import (
	"context"
	"sync/atomic"

	"github.com/spf13/viper"
)

// Loader builds a fully resolved config, overrides included.
type Loader func(ctx context.Context) (*viper.Viper, error)

// Live publishes the config in effect. A published Viper is never written to
// again, so readers use it without locking.
type Live struct {
	cur  atomic.Pointer[viper.Viper]
	load Loader
}

// NewLive publishes v. A nil load re-reads the file v was loaded from.
func NewLive(v *viper.Viper, load Loader) *Live {
	if load == nil {
		load = FileLoader(v.ConfigFileUsed())
	}
	l := &Live{load: load}
	l.cur.Store(v)
	return l
}

// FileLoader loads path (or the default search paths when empty) with defaults
// and env applied.
func FileLoader(path string) Loader {
	return func(ctx context.Context) (*viper.Viper, error) {
		v := viper.New()
		if path != "" {
			v.SetConfigFile(path)
		}
		if err := Load(ctx, v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Viper returns the current config. Callers must not modify it.
func (l *Live) Viper() *viper.Viper { return l.cur.Load() }

// Reload loads and validates a candidate config and publishes it. On error
// the previous config stays in effect.
func (l *Live) Reload(ctx context.Context) (*viper.Viper, error) {
	next, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := CheckConfigValidity(next); err != nil {
		return nil, err
	}
	l.Publish(next)
	return next, nil
}

// Publish makes v the config in effect without validating it.
func (l *Live) Publish(v *viper.Viper) { l.cur.Store(v) }
