package session

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/skillforge/skillforge/pkg/logger"
)

// JSONStore persists each session as one JSON file under a base
// directory. Saves write to a temporary file and rename into place, so
// a crash never leaves a partially written checkpoint.
type JSONStore struct {
	basePath string
}

// NewJSONStore creates a JSON file-based session store.
func NewJSONStore(basePath string) (*JSONStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create sessions directory")
	}
	return &JSONStore{basePath: basePath}, nil
}

func (s *JSONStore) path(id string) string {
	return filepath.Join(s.basePath, id+".json")
}

// Save checkpoints a session atomically.
func (s *JSONStore) Save(_ context.Context, record Record) error {
	if record.ID == "" {
		return errors.New("session record has no id")
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal session record")
	}

	finalPath := s.path(record.ID)
	tempPath := finalPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write temporary session file")
	}
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return errors.Wrap(err, "failed to rename temporary session file")
	}
	return nil
}

// Load reads a session by id.
func (s *JSONStore) Load(_ context.Context, id string) (Record, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, errors.Wrapf(ErrNotFound, "%s", id)
		}
		return Record{}, errors.Wrap(err, "failed to read session file")
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, errors.Wrap(err, "failed to unmarshal session record")
	}
	return record, nil
}

// List returns summaries of all stored sessions, most recently updated
// first.
func (s *JSONStore) List(ctx context.Context) ([]Summary, error) {
	return s.Query(ctx, QueryOptions{})
}

// Delete removes a session.
func (s *JSONStore) Delete(_ context.Context, id string) error {
	err := os.Remove(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(ErrNotFound, "%s", id)
		}
		return errors.Wrap(err, "failed to delete session file")
	}
	return nil
}

// Query searches sessions matching the given criteria.
func (s *JSONStore) Query(ctx context.Context, options QueryOptions) ([]Summary, error) {
	var summaries []Summary

	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			logger.G(ctx).WithField("path", path).WithError(readErr).Warn("skipping unreadable session file")
			return nil
		}

		var record Record
		if unmarshalErr := json.Unmarshal(data, &record); unmarshalErr != nil {
			logger.G(ctx).WithField("path", path).WithError(unmarshalErr).Warn("skipping unparseable session file")
			return nil
		}

		if !matches(&record, options) {
			return nil
		}
		summaries = append(summaries, record.ToSummary())
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query sessions")
	}

	sortSummaries(summaries, options)
	return paginate(summaries, options), nil
}

// Close is a no-op for the JSON store.
func (s *JSONStore) Close() error {
	return nil
}

func matches(record *Record, options QueryOptions) bool {
	if options.StartDate != nil && record.UpdatedAt.Before(*options.StartDate) {
		return false
	}
	if options.EndDate != nil && record.UpdatedAt.After(*options.EndDate) {
		return false
	}
	if options.Phase != "" && record.Phase != options.Phase {
		return false
	}
	if options.SearchTerm != "" &&
		!strings.Contains(strings.ToLower(record.Request), strings.ToLower(options.SearchTerm)) {
		return false
	}
	return true
}

func sortSummaries(summaries []Summary, options QueryOptions) {
	asc := options.SortOrder == "asc"
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i].UpdatedAt, summaries[j].UpdatedAt
		if options.SortBy == "created" {
			a, b = summaries[i].CreatedAt, summaries[j].CreatedAt
		}
		if asc {
			return a.Before(b)
		}
		return a.After(b)
	})
}

func paginate(summaries []Summary, options QueryOptions) []Summary {
	if options.Limit <= 0 && options.Offset <= 0 {
		return summaries
	}

	offset := options.Offset
	if offset > len(summaries) {
		offset = len(summaries)
	}
	limit := options.Limit
	if limit <= 0 || offset+limit > len(summaries) {
		limit = len(summaries) - offset
	}
	return summaries[offset : offset+limit]
}
