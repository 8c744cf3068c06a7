// Package backup provides automated SQLite database backups with tiered
// retention and integrity verification. Only the sqlite storage engine is
// covered; postgres deployments are expected to use the database's own
// tooling.
package backup

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config holds backup service configuration.
type Config struct {
	// DBPath is the path to the SQLite database file to back up.
	DBPath string

	// Dir is the directory where backups are stored.
	Dir string

	// Interval is the duration between automated backups (default: 24h).
	Interval time.Duration

	// Retention defines how many backups to keep per age tier.
	Retention RetentionPolicy

	// Verify enables an integrity check after each backup (default off;
	// set explicitly).
	Verify bool
}

// Result describes one completed backup.
type Result struct {
	Path     string
	Duration time.Duration
	Size     int64
	Verified bool
}

// Service performs scheduled database backups.
type Service struct {
	dbPath    string
	dir       string
	interval  time.Duration
	retention RetentionPolicy
	verify    bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewService creates a backup service, applying defaults and creating the
// backup directory.
func NewService(cfg Config) (*Service, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("backup: database path is required")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("backup: backup directory is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	cfg.Retention.applyDefaults()

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: failed to create backup directory: %w", err)
	}

	return &Service{
		dbPath:    cfg.DBPath,
		dir:       cfg.Dir,
		interval:  cfg.Interval,
		retention: cfg.Retention,
		verify:    cfg.Verify,
		stopCh:    make(chan struct{}),
	}, nil
}

// Start runs backups at the configured interval until the context is
// cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("backup: service is already running")
	}
	s.running = true
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("backup: service started: interval=%v dir=%s", s.interval, s.dir)

	for {
		select {
		case <-ctx.Done():
			log.Println("backup: service stopping (context cancelled)")
			return ctx.Err()

		case <-s.stopCh:
			log.Println("backup: service stopping")
			return nil

		case <-ticker.C:
			result, err := s.BackupNow(ctx)
			if err != nil {
				log.Printf("backup: scheduled backup failed: %v", err)
				continue
			}
			log.Printf("backup: completed: path=%s size=%d duration=%v verified=%v",
				result.Path, result.Size, result.Duration, result.Verified)
		}
	}
}

// Stop stops the backup service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		close(s.stopCh)
		s.running = false
	}
}

// BackupNow performs an immediate backup: a timestamped VACUUM INTO copy,
// optional verification, then the retention sweep.
func (s *Service) BackupNow(_ context.Context) (*Result, error) {
	start := time.Now()

	if _, err := os.Stat(s.dbPath); err != nil {
		return nil, fmt.Errorf("backup: database not found: %w", err)
	}

	// Microseconds keep names unique when backups run close together.
	stamp := time.Now().Format("20060102-150405.000000")
	path := filepath.Join(s.dir, fmt.Sprintf("napp-backup-%s.db", stamp))

	if err := backupSQLite(s.dbPath, path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to stat backup: %w", err)
	}

	result := &Result{
		Path:     path,
		Duration: time.Since(start),
		Size:     info.Size(),
	}

	if s.verify {
		if err := verifyBackup(path); err != nil {
			return result, fmt.Errorf("backup: verification failed: %w", err)
		}
		result.Verified = true
	}

	if err := applyRetention(s.dir, s.retention); err != nil {
		// A failed sweep must not fail the backup itself.
		log.Printf("backup: retention sweep failed: %v", err)
	}

	return result, nil
}
