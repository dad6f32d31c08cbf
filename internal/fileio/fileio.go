// Package fileio reads and atomically replaces small data files, retrying
// transient filesystem errors.
package fileio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	retry "github.com/sethvargo/go-retry"
)

// MaxRetries bounds the retry loop for transient errors.
const MaxRetries = 3

var backoff = 50 * time.Millisecond

// WriteFile writes data to name by writing a sibling temp file and renaming
// it into place, so readers never observe a partially written file. Missing
// parent directories are created.
func WriteFile(ctx context.Context, name string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return do(ctx, "write "+name, func() error {
		tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*.tmp")
		if err != nil {
			return err
		}
		tmpName := tmp.Name()
		cleanup := func() { _ = os.Remove(tmpName) }

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			cleanup()
			return err
		}
		if err := tmp.Chmod(perm); err != nil {
			tmp.Close()
			cleanup()
			return err
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return err
		}
		if err := os.Rename(tmpName, name); err != nil {
			cleanup()
			return err
		}
		return nil
	})
}

// ReadFile reads name. A missing file is reported as os.ErrNotExist without
// retrying.
func ReadFile(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := do(ctx, "read "+name, func() error {
		var err error
		data, err = os.ReadFile(name)
		return err
	})
	return data, err
}

func do(ctx context.Context, op string, fn func() error) error {
	b := retry.WithMaxRetries(MaxRetries, retry.NewExponential(backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := fn()
		if shouldRetry(err) {
			log.Warn().Err(err).Str("op", op).Msg("Transient file error, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, os.ErrExist) {
		return false
	}
	switch {
	case errors.Is(err, syscall.EROFS),
		errors.Is(err, syscall.ENOSPC),
		errors.Is(err, syscall.EISDIR),
		errors.Is(err, syscall.ENOTDIR),
		errors.Is(err, syscall.ENAMETOOLONG),
		errors.Is(err, syscall.EINVAL):
		return false
	}
	return true
}
