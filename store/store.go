// Package store persists completed trades and position snapshots as JSON
// files. The core treats it as fire-and-forget: a write failure is logged by
// the caller and never rolls back an in-memory transition.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/evdnx/gobx/types"
)

// FileStore keeps trades.json (append-only trade log) and positions.json
// (latest open-position snapshots, keyed by order id) under one directory.
type FileStore struct {
	mu            sync.Mutex
	tradesPath    string
	positionsPath string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileStore{
		tradesPath:    filepath.Join(dir, "trades.json"),
		positionsPath: filepath.Join(dir, "positions.json"),
	}, nil
}

// SaveTrade appends one completed trade to the trade log.
func (s *FileStore) SaveTrade(p types.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trades, err := s.loadLocked(s.tradesPath)
	if err != nil {
		return err
	}
	trades = append(trades, p)
	return writeJSONAtomic(s.tradesPath, trades)
}

// LoadTrades returns every persisted trade; a missing file is an empty log.
func (s *FileStore) LoadTrades() ([]types.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(s.tradesPath)
}

// SavePosition upserts an open-position snapshot by order id.
func (s *FileStore) SavePosition(p types.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions, err := s.loadLocked(s.positionsPath)
	if err != nil {
		return err
	}
	replaced := false
	for i := range positions {
		if positions[i].OrderID == p.OrderID {
			positions[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		positions = append(positions, p)
	}
	return writeJSONAtomic(s.positionsPath, positions)
}

func (s *FileStore) LoadPositions() ([]types.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(s.positionsPath)
}

func (s *FileStore) loadLocked(path string) ([]types.Position, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []types.Position
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// writeJSONAtomic marshals v and replaces path atomically (tmp file + fsync
// + rename) so a crash mid-write can never truncate the log.
func writeJSONAtomic(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	// best-effort fsync parent dir (Unix)
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
