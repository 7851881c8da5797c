// Package storage archives downloaded ticket PDFs so they can be served
// again without another round trip to the backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Sourchax/CMPE356-Project-sub000/internal/config"
)

// ErrNotFound is returned when no document is archived for a ticket
var ErrNotFound = errors.New("document not found")

// Document describes an archived ticket document
type Document struct {
	ID          string    `json:"id"`
	TicketID    int64     `json:"ticketId"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Key         string    `json:"key"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Archive defines the ticket document storage operations
type Archive interface {
	// Save stores data as the document of ticketID, replacing any previous one
	Save(ctx context.Context, ticketID int64, data []byte, contentType string) (*Document, error)

	// Open returns the archived document of ticketID
	Open(ctx context.Context, ticketID int64) (io.ReadCloser, *Document, error)

	// Delete removes the archived document of ticketID, if any
	Delete(ctx context.Context, ticketID int64) error
}

// NewArchive creates the archive selected by cfg.Type
func NewArchive(cfg config.StorageConfig) (Archive, error) {
	switch cfg.Type {
	case "local":
		return NewLocalArchive(cfg.Local)
	case "s3":
		return NewS3Archive(cfg.S3)
	case "none", "":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// Disabled archives nothing
type Disabled struct{}

func (Disabled) Save(_ context.Context, ticketID int64, data []byte, contentType string) (*Document, error) {
	return &Document{TicketID: ticketID, ContentType: contentType, Size: int64(len(data))}, nil
}

func (Disabled) Open(context.Context, int64) (io.ReadCloser, *Document, error) {
	return nil, nil, ErrNotFound
}

func (Disabled) Delete(context.Context, int64) error { return nil }

func documentName(ticketID int64, id string) string {
	return fmt.Sprintf("%d_%s.pdf", ticketID, id)
}

func documentPrefix(ticketID int64) string {
	return fmt.Sprintf("%d_", ticketID)
}
