package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atlas-desktop/tradestats/internal/analytics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const metadataFile = "index.json"

// FileStore keeps journals as <name>.json or <name>.csv under a directory.
// Saves always write JSON.
type FileStore struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	dataDir  string
	cache    map[string][]analytics.RawTrade
	metadata map[string]*Metadata
}

// NewFileStore creates a new file-backed journal store
func NewFileStore(logger *zap.Logger, dataDir string) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store := &FileStore{
		logger:   logger,
		dataDir:  dataDir,
		cache:    make(map[string][]analytics.RawTrade),
		metadata: make(map[string]*Metadata),
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	if err := store.loadMetadata(); err != nil {
		logger.Warn("Failed to load journal index", zap.Error(err))
	}

	return store, nil
}

// List returns the names of all journals on disk, sorted
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal directory: %w", err)
	}

	seen := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == metadataFile {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if _, err := FormatFromPath(entry.Name()); err != nil {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if ValidateName(name) == nil {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Load returns the raw trades of a journal, preferring JSON over CSV
func (s *FileStore) Load(ctx context.Context, name string) ([]analytics.RawTrade, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	for _, format := range []Format{FormatJSON, FormatCSV} {
		filename := filepath.Join(s.dataDir, name+"."+string(format))
		data, err := os.ReadFile(filename)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read journal file: %w", err)
		}

		trades, err := Decode(format, data)
		if err != nil {
			return nil, fmt.Errorf("journal %s: %w", name, err)
		}

		s.mu.Lock()
		s.cache[name] = trades
		s.mu.Unlock()

		s.logger.Debug("Loaded journal",
			zap.String("journal", name),
			zap.String("format", string(format)),
			zap.Int("trades", len(trades)),
		)
		return trades, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrJournalNotFound, name)
}

// Save writes the journal as JSON and records a new import id
func (s *FileStore) Save(ctx context.Context, name string, trades []analytics.RawTrade) (*Metadata, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if trades == nil {
		trades = []analytics.RawTrade{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(trades, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal journal: %w", err)
	}

	filename := filepath.Join(s.dataDir, name+".json")
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write journal file: %w", err)
	}

	s.cache[name] = trades

	meta := &Metadata{
		Name:       name,
		ImportID:   uuid.New().String(),
		TradeCount: len(trades),
		UpdatedAt:  time.Now().UTC(),
	}
	s.metadata[name] = meta

	if err := s.saveMetadata(); err != nil {
		s.logger.Warn("Failed to save journal index", zap.Error(err))
	}

	return meta, nil
}

// Metadata returns the last recorded import for a journal, if any
func (s *FileStore) Metadata(name string) (*Metadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.metadata[name]
	return meta, ok
}

// ClearCache drops all cached journals
func (s *FileStore) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = make(map[string][]analytics.RawTrade)
}

// Close implements Store
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) loadMetadata() error {
	data, err := os.ReadFile(filepath.Join(s.dataDir, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	metadata := make(map[string]*Metadata)
	if err := json.Unmarshal(data, &metadata); err != nil {
		return err
	}

	s.metadata = metadata
	return nil
}

func (s *FileStore) saveMetadata() error {
	data, err := json.MarshalIndent(s.metadata, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(s.dataDir, metadataFile), data, 0644)
}
