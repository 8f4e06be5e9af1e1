// Package config holds the settings shared by the commands and the
// code that turns those settings into a store and a port.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/elm-community/js-integration-examples/core"
	"github.com/elm-community/js-integration-examples/logging"
	"github.com/elm-community/js-integration-examples/store/mqtt"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"
)

// StoreConfig picks and configures the host store.
type StoreConfig struct {
	// Kind is one of "mem", "noop", "bolt", "sqlite", "json", or
	// "mqtt".
	Kind string `json:"kind" yaml:"kind" toml:"kind"`

	// Path is the database or file for "bolt", "sqlite", and
	// "json".
	Path string `json:"path" yaml:"path" toml:"path"`

	// Bucket is the BoltDB bucket.
	Bucket string `json:"bucket" yaml:"bucket" toml:"bucket"`

	MQTT mqtt.Config `json:"mqtt" yaml:"mqtt" toml:"mqtt"`
}

// ScriptConfig optionally routes Persists through a script.
type ScriptConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled"`

	// Path is a file with the script.  Source is used if Path is
	// empty.  Both empty means the default glue.
	Path   string `json:"path" yaml:"path" toml:"path"`
	Source string `json:"source" yaml:"source" toml:"source"`

	// Requires are libraries (like "file://lib.js") resolved
	// relative to LibDir.
	Requires []string `json:"requires" yaml:"requires" toml:"requires"`
	LibDir   string   `json:"libDir" yaml:"libDir" toml:"libDir"`

	Timeout time.Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
}

// Config is everything.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `json:"addr" yaml:"addr" toml:"addr"`

	// Key is the snapshot's storage key.
	Key string `json:"key" yaml:"key" toml:"key"`

	Title string `json:"title" yaml:"title" toml:"title"`

	// Description is markdown shown with the form.
	Description string `json:"description" yaml:"description" toml:"description"`

	// Flags, if not empty, is the initial snapshot, used instead
	// of reading the store.
	Flags string `json:"flags" yaml:"flags" toml:"flags"`

	Store  StoreConfig    `json:"store" yaml:"store" toml:"store"`
	Script ScriptConfig   `json:"script" yaml:"script" toml:"script"`
	Log    logging.Config `json:"log" yaml:"log" toml:"log"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Addr:  ":8080",
		Key:   core.DefaultKey,
		Title: "Persistent form",
		Store: StoreConfig{
			Kind: "bolt",
			Path: "forms.db",
			MQTT: mqtt.DefaultConfig(),
		},
		Script: ScriptConfig{
			LibDir:  ".",
			Timeout: time.Second,
		},
	}
}

// Load reads a configuration file on top of the defaults.  The
// format follows the extension: .yaml/.yml, .toml, or .json.
func Load(filename string) (*Config, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	c := Default()
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".yaml", ".yml":
		err = yaml.UnmarshalStrict(bs, c)
	case ".toml":
		_, err = toml.Decode(string(bs), c)
	case ".json":
		err = json.Unmarshal(bs, c)
	default:
		return nil, fmt.Errorf("unknown config format '%s'", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return c, c.Validate()
}

// Validate checks the things that can be checked without opening
// anything.
func (c *Config) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("empty storage key")
	}
	switch c.Store.Kind {
	case "mem", "noop", "mqtt":
	case "bolt", "sqlite", "json":
		if c.Store.Path == "" {
			return fmt.Errorf("store %s needs a path", c.Store.Kind)
		}
	default:
		return fmt.Errorf("unknown store kind '%s'", c.Store.Kind)
	}
	return nil
}

// FromArgs builds a Config from defaults, then the file named by
// -config (if any), then any other flags that were given.
//
// Each function in more can add flags of its own before parsing.
//
// The returned FlagSet is parsed; its Args() are what's left.
func FromArgs(name string, args []string, more ...func(*flag.FlagSet)) (*Config, *flag.FlagSet, error) {
	var (
		fs       = flag.NewFlagSet(name, flag.ContinueOnError)
		o        = Default()
		filename = fs.String("config", "", "Optional config file (YAML, TOML, or JSON)")
	)

	fs.StringVar(&o.Addr, "addr", o.Addr, "HTTP listen address")
	fs.StringVar(&o.Key, "key", o.Key, "Snapshot storage key")
	fs.StringVar(&o.Title, "title", o.Title, "Page title")
	fs.StringVar(&o.Flags, "flags", o.Flags, "Initial snapshot (JSON) instead of reading the store")
	fs.StringVar(&o.Store.Kind, "store", o.Store.Kind, `Store: "mem", "noop", "bolt", "sqlite", "json", or "mqtt"`)
	fs.StringVar(&o.Store.Path, "store-path", o.Store.Path, "Store database or file")
	fs.StringVar(&o.Store.MQTT.Broker, "broker", o.Store.MQTT.Broker, "MQTT broker for -store mqtt")
	fs.StringVar(&o.Script.Path, "script", o.Script.Path, "Optional port subscriber script")
	fs.StringVar(&o.Log.Level, "log-level", o.Log.Level, "Log level")
	fs.BoolVar(&o.Log.Verbose, "v", o.Log.Verbose, "Verbose")

	for _, f := range more {
		f(fs)
	}

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}

	c := Default()
	if *filename != "" {
		var err error
		if c, err = Load(*filename); err != nil {
			return nil, fs, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			c.Addr = o.Addr
		case "key":
			c.Key = o.Key
		case "title":
			c.Title = o.Title
		case "flags":
			c.Flags = o.Flags
		case "store":
			c.Store.Kind = o.Store.Kind
		case "store-path":
			c.Store.Path = o.Store.Path
		case "broker":
			c.Store.MQTT.Broker = o.Store.MQTT.Broker
		case "script":
			c.Script.Path = o.Script.Path
			c.Script.Enabled = true
		case "log-level":
			c.Log.Level = o.Log.Level
		case "v":
			c.Log.Verbose = o.Log.Verbose
		}
	})

	return c, fs, c.Validate()
}
