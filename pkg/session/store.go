package session

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// QueryOptions filters and sorts session listings.
type QueryOptions struct {
	StartDate  *time.Time // only sessions updated at or after this time
	EndDate    *time.Time // only sessions updated at or before this time
	Phase      Phase      // only sessions currently in this phase
	SearchTerm string     // substring match against the request
	Limit      int
	Offset     int
	SortBy     string // "updated" (default), "created"
	SortOrder  string // "asc" or "desc" (default)
}

// Store is the session persistence contract. Every write must be
// atomic: a crash mid-save leaves the previous checkpoint intact.
type Store interface {
	Save(ctx context.Context, record Record) error
	Load(ctx context.Context, id string) (Record, error)
	List(ctx context.Context) ([]Summary, error)
	Query(ctx context.Context, options QueryOptions) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// ErrNotFound is returned when a session id does not exist.
var ErrNotFound = errors.New("session not found")

// Config selects and locates a store backend.
type Config struct {
	Backend  string // "json" or "sqlite"
	BasePath string
}

// DefaultBasePath returns ~/.skillforge/sessions.
func DefaultBasePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(homeDir, ".skillforge", "sessions"), nil
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() (*Config, error) {
	basePath, err := DefaultBasePath()
	if err != nil {
		return nil, err
	}
	return &Config{Backend: "json", BasePath: basePath}, nil
}

// NewStore creates a store for the given configuration.
func NewStore(ctx context.Context, config *Config) (Store, error) {
	if config == nil {
		defaults, err := DefaultConfig()
		if err != nil {
			return nil, err
		}
		config = defaults
	}

	switch config.Backend {
	case "", "json":
		return NewJSONStore(config.BasePath)
	case "sqlite":
		return NewSQLiteStore(ctx, filepath.Join(config.BasePath, "sessions.db"))
	default:
		return nil, errors.Errorf("unknown session store backend %q", config.Backend)
	}
}
