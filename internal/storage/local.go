package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/config"
)

// LocalArchive stores documents in a directory on the local filesystem
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates the base directory when missing
func NewLocalArchive(cfg config.LocalStorageConfig) (*LocalArchive, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("storage.local.path is required")
	}
	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalArchive{basePath: cfg.Path}, nil
}

// Save writes the document to a temporary file and renames it into place
func (s *LocalArchive) Save(ctx context.Context, ticketID int64, data []byte, contentType string) (*Document, error) {
	if err := s.Delete(ctx, ticketID); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	name := documentName(ticketID, id)
	path := filepath.Join(s.basePath, name)

	tmp, err := os.CreateTemp(s.basePath, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat document: %w", err)
	}

	return &Document{
		ID:          id,
		TicketID:    ticketID,
		ContentType: contentType,
		Size:        info.Size(),
		Key:         name,
		CreatedAt:   info.ModTime(),
	}, nil
}

// Open returns the stored document of ticketID
func (s *LocalArchive) Open(ctx context.Context, ticketID int64) (io.ReadCloser, *Document, error) {
	path, err := s.find(ticketID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open document: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to stat document: %w", err)
	}

	name := filepath.Base(path)
	return f, &Document{
		ID:          strings.TrimSuffix(strings.TrimPrefix(name, documentPrefix(ticketID)), ".pdf"),
		TicketID:    ticketID,
		ContentType: "application/pdf",
		Size:        info.Size(),
		Key:         name,
		CreatedAt:   info.ModTime(),
	}, nil
}

// Delete removes every stored document of ticketID
func (s *LocalArchive) Delete(ctx context.Context, ticketID int64) error {
	matches, err := filepath.Glob(filepath.Join(s.basePath, documentPrefix(ticketID)+"*.pdf"))
	if err != nil {
		return fmt.Errorf("error searching for document: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete document: %w", err)
		}
	}
	return nil
}

func (s *LocalArchive) find(ticketID int64) (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, documentPrefix(ticketID)+"*.pdf"))
	if err != nil {
		return "", fmt.Errorf("error searching for document: %w", err)
	}
	if len(matches) == 0 {
		return "", ErrNotFound
	}
	return matches[0], nil
}
