package store

import (
	"context"
	"path/filepath"

	"github.com/charmbracelet/log"

	apperrors "github.com/matzehuels/whiteboard/pkg/errors"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend       string
	Dir           string // file backend directory; also the default home of the sqlite file
	SQLitePath    string
	RedisURL      string
	RedisPrefix   string
	MongoURI      string
	MongoDatabase string
	Compress      bool
}

// Open creates the store described by cfg. An empty backend means file.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (*Boards, error) {
	var (
		b   Backend
		err error
	)
	switch cfg.Backend {
	case BackendFile, "":
		b, err = NewFileBackend(cfg.Dir)
	case BackendMemory:
		b = NewMemory()
	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			dir := cfg.Dir
			if dir == "" {
				dir = "."
			}
			path = filepath.Join(dir, "whiteboard.db")
		}
		b, err = OpenSQLite(path)
	case BackendRedis:
		if err := apperrors.ValidateURL(cfg.RedisURL, "redis", "rediss"); err != nil {
			return nil, err
		}
		b, err = NewRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
	case BackendMongo:
		if err := apperrors.ValidateURL(cfg.MongoURI, "mongodb", "mongodb+srv"); err != nil {
			return nil, err
		}
		b, err = NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorage, err, "open %s store", backendName(cfg.Backend))
	}
	if logger != nil {
		logger.Debug("opened store", "backend", b.Name(), "compress", cfg.Compress)
	}
	return New(b, Codec{Compress: cfg.Compress}, logger), nil
}

func backendName(name string) string {
	if name == "" {
		return BackendFile
	}
	return name
}
