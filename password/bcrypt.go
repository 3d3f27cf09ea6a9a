package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost matches the work factor of the reference password field.
	DefaultCost = 10
	// DefaultMinBytes is the shortest password Hash accepts.
	DefaultMinBytes = 8
	// MaxBytes is bcrypt's input limit. Longer passwords would be silently
	// truncated, so they are rejected instead.
	MaxBytes = 72
)

var (
	// ErrPasswordTooShort is returned by Hash for passwords below MinBytes.
	ErrPasswordTooShort = errors.New("password too short")
	// ErrPasswordTooLong is returned for passwords above MaxBytes.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrMalformedHash is returned when a stored hash cannot be parsed.
	ErrMalformedHash = errors.New("malformed password hash")
)

// Config controls bcrypt cost and length policy.
type Config struct {
	Cost     int
	MinBytes int
}

// DefaultConfig returns cost 10 and an 8 byte minimum.
func DefaultConfig() Config {
	return Config{Cost: DefaultCost, MinBytes: DefaultMinBytes}
}

// Bcrypt hashes and verifies passwords. It is immutable and safe for
// concurrent use.
type Bcrypt struct {
	config Config
}

// NewBcrypt validates cfg and returns a hasher.
func NewBcrypt(cfg Config) (*Bcrypt, error) {
	if cfg.Cost < bcrypt.MinCost || cfg.Cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.MinBytes < 1 || cfg.MinBytes > MaxBytes {
		return nil, fmt.Errorf("min password bytes must be between 1 and %d", MaxBytes)
	}
	return &Bcrypt{config: cfg}, nil
}

// Hash returns the bcrypt hash of password. Bytes are used as given, with no
// Unicode normalization.
func (b *Bcrypt) Hash(password string) (string, error) {
	if len(password) < b.config.MinBytes {
		return "", ErrPasswordTooShort
	}
	if len(password) > MaxBytes {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.config.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches encodedHash. A mismatch is
// (false, nil); an unparsable hash is an error.
func (b *Bcrypt) Verify(password, encodedHash string) (bool, error) {
	if len(password) > MaxBytes {
		return false, ErrPasswordTooLong
	}

	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}

// NeedsUpgrade reports whether encodedHash was made with a lower cost than
// the configured one.
func (b *Bcrypt) NeedsUpgrade(encodedHash string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	return cost < b.config.Cost, nil
}
