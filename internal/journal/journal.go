// Package journal persists named collections of raw trade records.
//
// A journal stores records exactly as imported. Normalization happens in the
// analytics package when metrics are computed.
package journal

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"go.uber.org/zap"
)

var (
	// ErrJournalNotFound is returned when no journal exists under a name
	ErrJournalNotFound = errors.New("journal not found")
	// ErrInvalidName is returned for names that are not safe file stems
	ErrInvalidName = errors.New("invalid journal name")
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)

// Store is a source of trade journals
type Store interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) ([]analytics.RawTrade, error)
	Save(ctx context.Context, name string, trades []analytics.RawTrade) (*Metadata, error)
	Close() error
}

// Metadata describes the last import of a journal
type Metadata struct {
	Name       string    `json:"name" yaml:"name"`
	ImportID   string    `json:"importId" yaml:"importId"`
	TradeCount int       `json:"tradeCount" yaml:"tradeCount"`
	UpdatedAt  time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// ValidateName checks that name can be used as a journal key
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Open picks the SQLite store when sqlitePath is set, the file store otherwise.
func Open(logger *zap.Logger, dataDir, sqlitePath string) (Store, error) {
	if sqlitePath != "" {
		store, err := NewSQLiteStore(logger, sqlitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store, err := NewFileStore(logger, dataDir)
	if err != nil {
		return nil, err
	}
	return store, nil
}
