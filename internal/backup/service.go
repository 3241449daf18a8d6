// Package backup wraps pg_dump/pg_restore behind an owned service
// object created once at process start, replacing what used to be
// ambient module state (timer plus restore-in-progress flag) in earlier
// iterations of this back office.
package backup

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrRestoreInProgress rejects a second concurrent restore. Restores
// are never queued.
var ErrRestoreInProgress = eris.New("a restore is already in progress")

// Config for the backup service.
type Config struct {
	DatabaseAddr string
	OutputDir    string
	// DailyAt is the HH:MM (UTC) at which the scheduler fires.
	DailyAt string
}

// Status is the service snapshot served by the status endpoint.
type Status struct {
	SchedulerRunning  bool      `json:"scheduler_running"`
	RestoreInProgress bool      `json:"restore_in_progress"`
	LastBackupAt      time.Time `json:"last_backup_at"`
	LastBackupPath    string    `json:"last_backup_path"`
	LastError         string    `json:"last_error"`
}

type runner func(ctx context.Context, name string, args ...string) error

// Service owns the backup scheduler and the restore exclusion flag.
type Service struct {
	cfg Config
	log *zap.SugaredLogger
	run runner

	mu        sync.Mutex
	running   bool
	restoring bool
	lastAt    time.Time
	lastPath  string
	lastErr   string

	cancel context.CancelFunc
	done   chan struct{}
}

func NewService(cfg Config, log *zap.SugaredLogger) *Service {
	s := &Service{cfg: cfg, log: log}
	s.run = func(ctx context.Context, name string, args ...string) error {
		cmd := exec.CommandContext(ctx, name, args...)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return eris.Wrapf(err, "%s: %s", name, string(out))
		}
		return nil
	}
	return s
}

// Start launches the scheduler loop: a one-minute ticker that fires the
// daily backup at the configured HH:MM.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.running = true
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if !s.shouldRun(now.UTC()) {
					continue
				}
				if err := s.Backup(ctx); err != nil {
					s.log.Errorw("scheduled backup failed", "error", err)
				}
			}
		}
	}()
}

// Stop shuts the scheduler down and waits for the loop to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
}

func (s *Service) shouldRun(now time.Time) bool {
	t, err := time.Parse("15:04", s.cfg.DailyAt)
	if err != nil {
		return false
	}
	return now.Hour() == t.Hour() && now.Minute() == t.Minute()
}

// Backup runs pg_dump into a timestamped custom-format file.
func (s *Service) Backup(ctx context.Context) error {
	path := filepath.Join(s.cfg.OutputDir,
		fmt.Sprintf("backoffice_%s.dump", time.Now().UTC().Format("20060102_150405")))

	err := s.run(ctx, "pg_dump", "--format=custom", "--file="+path, "--dbname="+s.cfg.DatabaseAddr)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err.Error()
		return err
	}
	s.lastAt = time.Now().UTC()
	s.lastPath = path
	s.lastErr = ""
	s.log.Infow("backup written", "path", path)
	return nil
}

// Restore runs pg_restore from the given dump. At most one restore at a
// time; a concurrent attempt gets ErrRestoreInProgress.
func (s *Service) Restore(ctx context.Context, path string) error {
	s.mu.Lock()
	if s.restoring {
		s.mu.Unlock()
		return ErrRestoreInProgress
	}
	s.restoring = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.restoring = false
		s.mu.Unlock()
	}()

	s.log.Infow("restore starting", "path", path)
	if err := s.run(ctx, "pg_restore", "--clean", "--if-exists", "--dbname="+s.cfg.DatabaseAddr, path); err != nil {
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		return err
	}
	return nil
}

// Status snapshots the service state.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		SchedulerRunning:  s.running,
		RestoreInProgress: s.restoring,
		LastBackupAt:      s.lastAt,
		LastBackupPath:    s.lastPath,
		LastError:         s.lastErr,
	}
}
