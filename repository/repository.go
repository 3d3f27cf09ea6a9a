package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no item matches.
	ErrNotFound = errors.New("item not found")
	// ErrDuplicateEmail is returned when an item with the same email exists.
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrNotEmpty is returned by CreateFirst when the store already holds an
	// item.
	ErrNotEmpty = errors.New("item store is not empty")
	// ErrInvalidInput is returned when an ItemInput lacks a name or email.
	ErrInvalidInput = errors.New("invalid item input")
	// ErrUnsupportedURL is returned by Open for unknown schemes.
	ErrUnsupportedURL = errors.New("unsupported database url")
)

// Item is one entry of the auth list. Email is the identity field and
// PasswordHash the secret field.
type Item struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ItemInput holds the fields of a new item. The store assigns ID and
// CreatedAt.
type ItemInput struct {
	Name         string
	Email        string
	PasswordHash string
	IsAdmin      bool
}

// ItemStore persists auth list items. Implementations are safe for
// concurrent use.
type ItemStore interface {
	Create(ctx context.Context, in ItemInput) (*Item, error)
	// CreateFirst creates in only if the store is empty, atomically.
	CreateFirst(ctx context.Context, in ItemInput) (*Item, error)
	Get(ctx context.Context, id string) (*Item, error)
	FindByEmail(ctx context.Context, email string) (*Item, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// NormalizeEmail lowercases and trims an email so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Open returns the store named by url:
//
//	memory:            in-memory store
//	file:<path>        bolt database at path
//	postgres://...     pgx pool (postgresql:// also accepted)
func Open(ctx context.Context, url string) (ItemStore, error) {
	switch {
	case url == "memory:" || strings.HasPrefix(url, "memory:"):
		return NewMemory(), nil
	case strings.HasPrefix(url, "file:"):
		path := strings.TrimPrefix(url, "file:")
		if path == "" {
			return nil, fmt.Errorf("%w: empty file path", ErrUnsupportedURL)
		}
		return OpenBolt(path)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return ConnectPostgres(ctx, url)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, url)
	}
}

// Scheme returns the store kind named by url without any credentials it
// may carry.
func Scheme(url string) string {
	switch {
	case strings.HasPrefix(url, "memory:"):
		return "memory"
	case strings.HasPrefix(url, "file:"):
		return "bolt"
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres"
	default:
		return "unknown"
	}
}

func validateInput(in ItemInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if NormalizeEmail(in.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	return nil
}
