package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"sapsan-irt/config"
	"sapsan-irt/core/store"
	"sapsan-irt/core/utils"
)

// Scheduler runs the periodic housekeeping: dropping expired sessions and
// trimming the audit log past its retention window.
type Scheduler struct {
	cfg      config.MaintenanceConfig
	cron     *cron.Cron
	sessions store.SessionStore
	audits   store.AuditStore
	logger   *utils.Logger
}

func NewScheduler(cfg config.MaintenanceConfig, sessions store.SessionStore, audits store.AuditStore, logger *utils.Logger) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		cron:     cron.New(),
		sessions: sessions,
		audits:   audits,
		logger:   logger,
	}
}

func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	spec := s.cfg.Schedule
	if spec == "" {
		spec = "@every 10m"
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := utils.NowUTC()
	if n, err := s.sessions.PurgeExpired(ctx, now); err != nil {
		s.logger.Errorf("maintenance: purge sessions: %v", err)
	} else if n > 0 {
		s.logger.Printf("maintenance: purged %d expired sessions", n)
	}

	if s.cfg.AuditRetentionDays > 0 {
		cutoff := now.AddDate(0, 0, -s.cfg.AuditRetentionDays)
		if n, err := s.audits.TrimOlderThan(ctx, cutoff); err != nil {
			s.logger.Errorf("maintenance: trim audit log: %v", err)
		} else if n > 0 {
			s.logger.Printf("maintenance: trimmed %d audit entries", n)
		}
	}
}
