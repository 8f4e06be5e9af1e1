package config

import (
	"context"
	"fmt"
	"os"

	"github.com/elm-community/js-integration-examples/host"
	"github.com/elm-community/js-integration-examples/interpreters/goja"
	"github.com/elm-community/js-integration-examples/store"
	"github.com/elm-community/js-integration-examples/store/bolt"
	"github.com/elm-community/js-integration-examples/store/jsonfile"
	"github.com/elm-community/js-integration-examples/store/mqtt"
	"github.com/elm-community/js-integration-examples/store/sqlite"

	"github.com/rs/zerolog"
)

// OpenStore opens the configured store.  The caller should Close it.
func (c *Config) OpenStore(ctx context.Context, log zerolog.Logger) (store.Store, error) {
	log = log.With().Str("store", c.Store.Kind).Logger()

	switch c.Store.Kind {
	case "mem":
		return store.NewMemStore(), nil
	case "noop":
		return &store.NoopStore{}, nil
	case "bolt":
		s, err := bolt.NewStorage(c.Store.Path)
		if err != nil {
			return nil, err
		}
		s.Log = log
		if c.Store.Bucket != "" {
			s.Bucket = c.Store.Bucket
		}
		if err = s.Open(ctx); err != nil {
			return nil, fmt.Errorf("bolt %s: %w", c.Store.Path, err)
		}
		return s, nil
	case "sqlite":
		s, err := sqlite.Open(ctx, c.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite %s: %w", c.Store.Path, err)
		}
		s.Log = log
		return s, nil
	case "json":
		s, err := jsonfile.Open(c.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("json %s: %w", c.Store.Path, err)
		}
		return s, nil
	case "mqtt":
		s, err := mqtt.Dial(ctx, c.Store.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt %s: %w", c.Store.MQTT.Broker, err)
		}
		s.Log = log
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store kind '%s'", c.Store.Kind)
	}
}

// ScriptSource returns the configured script source, reading
// Script.Path if given.
func (c *Config) ScriptSource() (string, error) {
	if c.Script.Path == "" {
		return c.Script.Source, nil
	}
	bs, err := os.ReadFile(c.Script.Path)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// Port makes the outbound port for the given store.
//
// Without a script, Persists go straight to the store.  With one, the
// script gets them and the store is its localStorage.
func (c *Config) Port(ctx context.Context, s store.Store, log zerolog.Logger) (host.Port, error) {
	if !c.Script.Enabled {
		return &host.StorePort{Store: s}, nil
	}

	src, err := c.ScriptSource()
	if err != nil {
		return nil, err
	}

	i := goja.NewInterpreter(s)
	i.Log = log.With().Str("port", "script").Logger()
	i.Requires = c.Script.Requires
	if c.Script.Timeout > 0 {
		i.Timeout = c.Script.Timeout
	}
	if c.Script.LibDir != "" {
		i.LibraryProvider = goja.MakeFileLibraryProvider(c.Script.LibDir)
	}

	sub, err := goja.NewSubscriber(ctx, i, src)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return &host.ScriptPort{Subscriber: sub}, nil
}
