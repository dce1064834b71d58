package storage

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/vjranagit/detector-stability/pkg/forest"
	"github.com/vjranagit/detector-stability/pkg/stability"
	"github.com/vjranagit/detector-stability/pkg/telemetry"
)

// ArtifactVersion is the on-disk model format. Artifacts written by another
// version are rejected rather than decoded.
const ArtifactVersion = 1

// ErrIncompatibleArtifact is returned for a model written in another format
var ErrIncompatibleArtifact = errors.New("incompatible model artifact")

// ModelStore interface defines the contract for model persistence
type ModelStore interface {
	// Put stores a fitted model under name, replacing any previous one
	Put(ctx context.Context, name string, m *stability.Model) error

	// Get loads the model stored under name
	Get(ctx context.Context, name string) (*stability.Model, error)

	// Close closes the store
	Close() error
}

// Config holds storage configuration
type Config struct {
	Path             string
	CompressionLevel int
}

// DefaultConfig returns default storage configuration
func DefaultConfig() *Config {
	return &Config{
		Path:             "./data",
		CompressionLevel: 3,
	}
}

// badgerStore implements ModelStore using BadgerDB
type badgerStore struct {
	cfg        *Config
	db         *badger.DB
	compressor *Compressor
	mu         sync.RWMutex
}

// modelMeta is the JSON metadata stored next to each artifact
type modelMeta struct {
	FormatVersion int       `json:"format_version"`
	ID            uuid.UUID `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Features      []string  `json:"features"`
	Trees         int       `json:"trees"`
	R2            *float64  `json:"r2,omitempty"`
	TrainRows     int       `json:"train_rows"`
	TestRows      int       `json:"test_rows"`
	ArtifactBytes int       `json:"artifact_bytes"`
}

// NewModelStore opens the model store under cfg.Path/models
func NewModelStore(cfg *Config) (ModelStore, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// Initialize BadgerDB
	opts := badger.DefaultOptions(filepath.Join(cfg.Path, "models"))
	opts.Logger = nil // Disable BadgerDB logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	compressor, err := NewCompressor(cfg.CompressionLevel)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}

	return &badgerStore{
		cfg:        cfg,
		db:         db,
		compressor: compressor,
	}, nil
}

// Put implements ModelStore.Put
func (s *badgerStore) Put(ctx context.Context, name string, m *stability.Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(m.Forest()); err != nil {
		return fmt.Errorf("failed to encode forest: %w", err)
	}
	artifact := s.compressor.Compress(raw.Bytes())

	meta := modelMeta{
		FormatVersion: ArtifactVersion,
		ID:            m.ID,
		CreatedAt:     m.CreatedAt,
		Features:      m.Features,
		Trees:         m.Trees(),
		TrainRows:     m.TrainRows,
		TestRows:      m.TestRows,
		ArtifactBytes: len(artifact),
	}
	// R² is undefined (NaN) for a constant held-out set
	if !math.IsNaN(m.R2) && !math.IsInf(m.R2, 0) {
		r2 := m.R2
		meta.R2 = &r2
	}

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(metaKey(name), metaBytes); err != nil {
			return err
		}
		return txn.Set(artifactKey(name), artifact)
	})
}

// Get implements ModelStore.Get
func (s *badgerStore) Get(ctx context.Context, name string) (*stability.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var metaBytes, artifact []byte
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if metaBytes, err = readValue(txn, metaKey(name)); err != nil {
			return err
		}
		artifact, err = readValue(txn, artifactKey(name))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, &telemetry.MissingModelError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read model %q: %w", name, err)
	}

	var meta modelMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if meta.FormatVersion != ArtifactVersion {
		return nil, fmt.Errorf("model %q has format %d, want %d: %w",
			name, meta.FormatVersion, ArtifactVersion, ErrIncompatibleArtifact)
	}

	raw, err := s.compressor.Decompress(artifact)
	if err != nil {
		return nil, err
	}

	var f forest.Forest
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode forest: %w", err)
	}

	m, err := stability.NewModel(&f, meta.Features)
	if err != nil {
		return nil, err
	}
	m.ID = meta.ID
	m.CreatedAt = meta.CreatedAt
	m.TrainRows = meta.TrainRows
	m.TestRows = meta.TestRows
	m.R2 = math.NaN()
	if meta.R2 != nil {
		m.R2 = *meta.R2
	}

	return m, nil
}

// Close implements ModelStore.Close
func (s *badgerStore) Close() error {
	s.compressor.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func readValue(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// metaKey generates the metadata key of a model
func metaKey(name string) []byte {
	return []byte("model/" + name + "/meta")
}

// artifactKey generates the artifact key of a model
func artifactKey(name string) []byte {
	return []byte("model/" + name + "/artifact")
}
