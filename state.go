package main

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"

	"carsim/backend/internal/logging"
	"carsim/backend/internal/vehicle"
)

type snapshotOption func(*SessionSnapshotter)

// WithSnapshotClock overrides the snapshot time source; primarily used in tests.
func WithSnapshotClock(clock func() time.Time) snapshotOption {
	return func(s *SessionSnapshotter) {
		if clock != nil {
			s.now = clock
		}
	}
}

// SessionSource exposes the pieces of the simulation the snapshotter persists.
type SessionSource interface {
	Snapshot() map[string]vehicle.State
	Restore(states map[string]vehicle.State)
}

// SessionSnapshotter periodically persists every vehicle session to disk so
// drivers resume where they left off after a restart. Snapshots are snappy
// compressed JSON; the format is an implementation detail of this file.
type SessionSnapshotter struct {
	mu       sync.Mutex
	path     string
	interval time.Duration
	source   SessionSource
	log      *logging.Logger
	now      func() time.Time

	flushCh chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
}

type sessionSnapshotFile struct {
	SavedAt  time.Time                `json:"saved_at"`
	Sessions map[string]vehicle.State `json:"sessions"`
}

// NewSessionSnapshotter restores any previous snapshot into the source and
// starts the persistence loop. A nil snapshotter is returned when persistence
// is not configured.
func NewSessionSnapshotter(path string, interval time.Duration, source SessionSource, logger *logging.Logger, opts ...snapshotOption) (*SessionSnapshotter, error) {
	if path == "" || interval <= 0 || source == nil {
		return nil, nil
	}
	if logger == nil {
		logger = logging.L()
	}
	snapshotter := &SessionSnapshotter{
		path:     path,
		interval: interval,
		source:   source,
		log:      logger,
		now:      time.Now,
		flushCh:  make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(snapshotter)
		}
	}
	if err := snapshotter.load(); err != nil {
		return nil, err
	}
	go snapshotter.loop()
	return snapshotter, nil
}

func (s *SessionSnapshotter) load() error {
	if s == nil {
		return nil
	}
	compressed, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return err
	}
	var file sessionSnapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	if len(file.Sessions) == 0 {
		return nil
	}
	//1.- Hand the restored sessions back to the simulation before it starts ticking.
	s.source.Restore(file.Sessions)
	s.log.Info("restored session snapshot",
		logging.Int("sessions", len(file.Sessions)),
		logging.String("saved_at", file.SavedAt.UTC().Format(time.RFC3339)),
	)
	return nil
}

func (s *SessionSnapshotter) loop() {
	if s == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneCh)
	for {
		select {
		case <-ticker.C:
			s.flush()
		case <-s.flushCh:
			s.flush()
		case <-s.stopCh:
			s.flush()
			return
		}
	}
}

// RequestFlush schedules an immediate persistence pass without blocking.
func (s *SessionSnapshotter) RequestFlush() {
	if s == nil {
		return
	}
	select {
	case s.flushCh <- struct{}{}:
	default:
	}
}

// Flush immediately persists the current session states to disk.
func (s *SessionSnapshotter) Flush() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.source.Snapshot()
	file := sessionSnapshotFile{SavedAt: s.now().UTC(), Sessions: sessions}
	data, err := json.Marshal(file)
	if err != nil {
		return err
	}
	compressed := snappy.Encode(nil, data)
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
			return err
		}
	}
	//1.- Write then rename so a crash mid-flush never corrupts the snapshot.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *SessionSnapshotter) flush() {
	if err := s.Flush(); err != nil {
		s.log.Error("failed to persist session snapshot", logging.Error(err))
	}
}

// Close stops the persistence goroutine and flushes any pending state to disk.
func (s *SessionSnapshotter) Close() error {
	if s == nil {
		return nil
	}
	close(s.stopCh)
	<-s.doneCh
	return nil
}
