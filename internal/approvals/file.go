package approvals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"ceassist/internal/fileio"
	"ceassist/internal/models"

	"github.com/rs/zerolog"
	"github.com/tidwall/jsonc"
)

// FileStore keeps approvals in a single JSON object keyed by thread ID.
// The whole file is read and rewritten on every upsert.
type FileStore struct {
	path   string
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewFileStore returns a FileStore backed by path. The file is created on
// the first upsert.
func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.With().Str("component", "approvals").Str("path", path).Logger(),
	}
}

func (s *FileStore) Get(ctx context.Context, threadID string) (models.Approval, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return models.Approval{}, false, err
	}
	a, ok := all[threadID]
	return a, ok, nil
}

func (s *FileStore) Upsert(ctx context.Context, threadID string, approval models.Approval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load(ctx)
	if err != nil {
		return err
	}
	all[threadID] = approval

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode approvals: %w", err)
	}
	if err := fileio.WriteFile(ctx, s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write approvals: %w", err)
	}
	return nil
}

func (s *FileStore) All(ctx context.Context) (map[string]models.Approval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *FileStore) Close() error {
	return nil
}

// load reads the approvals file. A missing or unparseable file yields an
// empty map; entries that fail to decode are dropped individually.
func (s *FileStore) load(ctx context.Context) (map[string]models.Approval, error) {
	approvals := make(map[string]models.Approval)

	data, err := fileio.ReadFile(ctx, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return approvals, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read approvals: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		s.logger.Warn().Err(err).Msg("Approvals file is not valid JSON, starting empty")
		return approvals, nil
	}

	for threadID, entry := range raw {
		var a models.Approval
		if err := json.Unmarshal(entry, &a); err != nil {
			s.logger.Warn().Err(err).Str("thread_id", threadID).Msg("Skipping malformed approval")
			continue
		}
		approvals[threadID] = a
	}
	return approvals, nil
}
