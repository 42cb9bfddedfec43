// Package storage stages uploaded import files on the local filesystem
// between the preview and execute steps of a run: execute re-parses the
// exact bytes the operator previewed.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/dfmunozb/cobro-coactivo-service/internal/pkg/errors"
)

// LocalStorage stages import files under a base directory, one
// subdirectory per upload
type LocalStorage struct {
	basePath      string
	maxFileSizeMB int64
	logger        *slog.Logger
}

// Config for local storage
type Config struct {
	BasePath      string // base directory for staged uploads
	MaxFileSizeMB int64  // 0 = unlimited
}

// StagedFile describes one staged upload
type StagedFile struct {
	ID           uuid.UUID `json:"id"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	Hash         string    `json:"hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(cfg *Config, logger *slog.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalStorage{
		basePath:      cfg.BasePath,
		maxFileSizeMB: cfg.MaxFileSizeMB,
		logger:        logger,
	}, nil
}

// Stage copies an uploaded file into the staging area and returns its
// descriptor. The content hash is computed while copying.
func (s *LocalStorage) Stage(ctx context.Context, filename string, reader io.Reader) (*StagedFile, error) {
	id := uuid.New()
	dir := filepath.Join(s.basePath, id.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	safeName := filepath.Base(filename)
	destPath := filepath.Join(dir, safeName)

	dest, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create staged file: %w", err)
	}
	defer dest.Close()

	src := io.Reader(reader)
	if s.maxFileSizeMB > 0 {
		// one extra byte so an exactly-at-limit file still passes
		src = io.LimitReader(reader, s.maxFileSizeMB*1024*1024+1)
	}

	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(dest, hash), src)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to copy staged file: %w", err)
	}
	if s.maxFileSizeMB > 0 && size > s.maxFileSizeMB*1024*1024 {
		os.RemoveAll(dir)
		return nil, apperrors.FileTooLarge(s.maxFileSizeMB)
	}

	staged := &StagedFile{
		ID:           id,
		OriginalName: safeName,
		Size:         size,
		Hash:         hex.EncodeToString(hash.Sum(nil)),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.writeDescriptor(dir, staged); err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	s.logger.Info("upload staged",
		slog.String("upload_id", id.String()),
		slog.String("filename", safeName),
		slog.Int64("size", size),
		slog.String("hash", staged.Hash))

	return staged, nil
}

// Open returns a reader over a staged upload plus its descriptor
func (s *LocalStorage) Open(ctx context.Context, id uuid.UUID) (io.ReadCloser, *StagedFile, error) {
	dir := filepath.Join(s.basePath, id.String())

	staged, err := s.readDescriptor(dir)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(dir, staged.OriginalName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, apperrors.NotFound(fmt.Sprintf("staged upload %s", id))
		}
		return nil, nil, fmt.Errorf("failed to open staged file: %w", err)
	}

	return f, staged, nil
}

// Remove deletes a staged upload once its run has finished
func (s *LocalStorage) Remove(ctx context.Context, id uuid.UUID) error {
	dir := filepath.Join(s.basePath, id.String())
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete staged upload: %w", err)
	}

	s.logger.Info("staged upload removed", slog.String("upload_id", id.String()))
	return nil
}

// CleanupOldFiles removes staged uploads older than the given duration;
// abandoned previews are the common case.
func (s *LocalStorage) CleanupOldFiles(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dirPath := filepath.Join(s.basePath, entry.Name())
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("failed to stat staged upload",
				slog.String("path", dirPath),
				slog.Any("error", err))
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(dirPath); err != nil {
				s.logger.Warn("failed to remove staged upload",
					slog.String("path", dirPath),
					slog.Any("error", err))
			} else {
				s.logger.Debug("removed old staged upload",
					slog.String("path", dirPath),
					slog.Time("mod_time", info.ModTime()))
			}
		}
	}

	return nil
}

const descriptorName = ".meta.json"

func (s *LocalStorage) writeDescriptor(dir string, staged *StagedFile) error {
	data, err := json.Marshal(staged)
	if err != nil {
		return fmt.Errorf("failed to marshal descriptor: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, descriptorName), data, 0644); err != nil {
		return fmt.Errorf("failed to write descriptor: %w", err)
	}
	return nil
}

func (s *LocalStorage) readDescriptor(dir string) (*StagedFile, error) {
	data, err := os.ReadFile(filepath.Join(dir, descriptorName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound(fmt.Sprintf("staged upload at %s", dir))
		}
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}

	var staged StagedFile
	if err := json.Unmarshal(data, &staged); err != nil {
		return nil, fmt.Errorf("failed to unmarshal descriptor: %w", err)
	}
	return &staged, nil
}
