// Package config loads whiteboard settings from an optional TOML file and
// WHITEBOARD_* environment variables.
//
// Precedence, lowest first: built-in defaults, the config file, the
// environment. Command-line flags are applied by the caller on top.
//
//	[store]
//	backend  = "sqlite"
//	dir      = "~/.local/share/whiteboard"
//	compress = true
//
//	[server]
//	addr         = ":8080"
//	render_cache = "file"
//	cache_dir    = "~/.cache/whiteboard"
//
//	[log]
//	level = "debug"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/whiteboard/pkg/cache"
	"github.com/matzehuels/whiteboard/pkg/store"
)

const appName = "whiteboard"

// Defaults.
const (
	DefaultAddr     = ":8080"
	DefaultLogLevel = "info"
)

// Config is the full set of settings.
type Config struct {
	Store  Store  `toml:"store"`
	Server Server `toml:"server"`
	Log    Log    `toml:"log"`

	// Path is the file the config was read from, empty if none was found.
	Path string `toml:"-"`
}

// Store configures the board store.
type Store struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	SQLitePath    string `toml:"sqlite_path"`
	RedisURL      string `toml:"redis_url"`
	RedisPrefix   string `toml:"redis_prefix"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	Compress      bool   `toml:"compress"`
}

// Render cache kinds for [server] render_cache.
const (
	RenderCacheMemory = "memory"
	RenderCacheFile   = "file"
	RenderCacheOff    = "off"
)

// Server configures the HTTP API.
type Server struct {
	Addr        string `toml:"addr"`
	RenderCache string `toml:"render_cache"`
	CacheDir    string `toml:"cache_dir"` // file render cache; default $XDG_CACHE_HOME/whiteboard
}

// Log configures logging.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store:  Store{Backend: store.BackendFile, RedisPrefix: store.DefaultRedisPrefix},
		Server: Server{Addr: DefaultAddr, RenderCache: RenderCacheMemory},
		Log:    Log{Level: DefaultLogLevel},
	}
}

// Load reads the config file at path, or the default path if path is empty,
// and applies environment overrides. A missing default file is not an error;
// a missing explicit file is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case err == nil:
			cfg.Path = path
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return cfg, fmt.Errorf("config %s: unknown key %s", path, undecoded[0])
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.Store.Dir = expandHome(cfg.Store.Dir)
	cfg.Store.SQLitePath = expandHome(cfg.Store.SQLitePath)
	cfg.Server.CacheDir = expandHome(cfg.Server.CacheDir)
	return cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/whiteboard/config.toml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

func (c *Config) applyEnv() error {
	c.Store.Backend = getenv("WHITEBOARD_STORE", c.Store.Backend)
	c.Store.Dir = getenv("WHITEBOARD_DIR", c.Store.Dir)
	c.Store.SQLitePath = getenv("WHITEBOARD_SQLITE_PATH", c.Store.SQLitePath)
	c.Store.RedisURL = getenv("WHITEBOARD_REDIS_URL", c.Store.RedisURL)
	c.Store.RedisPrefix = getenv("WHITEBOARD_REDIS_PREFIX", c.Store.RedisPrefix)
	c.Store.MongoURI = getenv("WHITEBOARD_MONGO_URI", c.Store.MongoURI)
	c.Store.MongoDatabase = getenv("WHITEBOARD_MONGO_DATABASE", c.Store.MongoDatabase)
	c.Server.Addr = getenv("WHITEBOARD_ADDR", c.Server.Addr)
	c.Server.RenderCache = getenv("WHITEBOARD_RENDER_CACHE", c.Server.RenderCache)
	c.Server.CacheDir = getenv("WHITEBOARD_CACHE_DIR", c.Server.CacheDir)
	c.Log.Level = getenv("WHITEBOARD_LOG_LEVEL", c.Log.Level)

	compress, err := getenvBool("WHITEBOARD_COMPRESS", c.Store.Compress)
	if err != nil {
		return err
	}
	c.Store.Compress = compress
	return nil
}

// StoreConfig converts the [store] section for store.Open.
func (c Config) StoreConfig() store.Config {
	return store.Config{
		Backend:       c.Store.Backend,
		Dir:           c.Store.Dir,
		SQLitePath:    c.Store.SQLitePath,
		RedisURL:      c.Store.RedisURL,
		RedisPrefix:   c.Store.RedisPrefix,
		MongoURI:      c.Store.MongoURI,
		MongoDatabase: c.Store.MongoDatabase,
		Compress:      c.Store.Compress,
	}
}

// RenderCache builds the cache selected by [server] render_cache.
func (c Config) RenderCache() (cache.Cache, error) {
	switch c.Server.RenderCache {
	case RenderCacheMemory, "":
		return cache.NewMemory(0), nil
	case RenderCacheOff:
		return cache.NewNullCache(), nil
	case RenderCacheFile:
		dir := c.Server.CacheDir
		if dir == "" {
			base, err := os.UserCacheDir()
			if err != nil {
				return nil, err
			}
			dir = filepath.Join(base, appName, "render")
		}
		return cache.NewFileCache(dir)
	}
	return nil, fmt.Errorf("config: unknown render_cache %q (must be %q, %q or %q)",
		c.Server.RenderCache, RenderCacheMemory, RenderCacheFile, RenderCacheOff)
}

// LogLevel parses the [log] level.
func (c Config) LogLevel() (log.Level, error) {
	return log.ParseLevel(c.Log.Level)
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
