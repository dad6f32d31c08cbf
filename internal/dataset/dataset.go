// Package dataset loads the thread and CRM datasets the service summarizes.
package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"ceassist/internal/fileio"
	"ceassist/internal/models"

	"github.com/rs/zerolog"
	"github.com/tidwall/jsonc"
)

// Source provides the raw threads and customer records. Implementations
// return empty slices rather than errors for absent or unreadable data.
type Source interface {
	Threads(ctx context.Context) ([]models.RawThread, error)
	Customers(ctx context.Context) ([]models.CustomerRecord, error)
}

// FileSource reads `{"threads": [...]}` and `{"customers": [...]}` JSON
// documents. A bare top-level array is accepted for either file.
type FileSource struct {
	threadsPath string
	crmPath     string
	logger      zerolog.Logger
}

// NewFileSource returns a FileSource over the two dataset files.
func NewFileSource(threadsPath, crmPath string, logger zerolog.Logger) *FileSource {
	return &FileSource{
		threadsPath: threadsPath,
		crmPath:     crmPath,
		logger:      logger.With().Str("component", "dataset").Logger(),
	}
}

func (s *FileSource) Threads(ctx context.Context) ([]models.RawThread, error) {
	return load[models.RawThread](ctx, s.logger, s.threadsPath, "threads")
}

func (s *FileSource) Customers(ctx context.Context) ([]models.CustomerRecord, error) {
	return load[models.CustomerRecord](ctx, s.logger, s.crmPath, "customers")
}

// load decodes the records under key. Records that fail to decode are
// logged and skipped so one bad entry does not drop the whole dataset.
func load[T any](ctx context.Context, logger zerolog.Logger, path, key string) ([]T, error) {
	logger = logger.With().Str("path", path).Logger()
	records := []T{}

	data, err := fileio.ReadFile(ctx, path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn().Msg("Dataset file not found, using empty dataset")
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	raw, err := entries(jsonc.ToJSON(data), key)
	if err != nil {
		logger.Warn().Err(err).Msg("Dataset file is malformed, using empty dataset")
		return records, nil
	}

	for i, entry := range raw {
		var rec T
		if err := json.Unmarshal(entry, &rec); err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("Skipping malformed record")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func entries(data []byte, key string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []json.RawMessage
		err := json.Unmarshal(trimmed, &list)
		return list, err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	value, ok := doc[key]
	if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return nil, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(value, &list); err != nil {
		return nil, fmt.Errorf("%q is not a list: %w", key, err)
	}
	return list, nil
}

// StaticSource serves fixed in-memory datasets.
type StaticSource struct {
	RawThreads      []models.RawThread
	CustomerRecords []models.CustomerRecord
}

func (s StaticSource) Threads(context.Context) ([]models.RawThread, error) {
	return s.RawThreads, nil
}

func (s StaticSource) Customers(context.Context) ([]models.CustomerRecord, error) {
	return s.CustomerRecords, nil
}
