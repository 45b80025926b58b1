package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type cacheSweeper interface {
	Sweep(olderThan time.Duration) int
}

type pagePruner interface {
	Prune(idle time.Duration) int
}

type exportCleaner interface {
	Cleanup() (int, error)
}

// MaintenanceConfig controls the periodic housekeeping run.
type MaintenanceConfig struct {
	Schedule string
	CacheGC  time.Duration
	PageIdle time.Duration
}

// MaintenanceService evicts unused cache entries, idle pages and expired
// exports on a cron schedule.
type MaintenanceService struct {
	cron    *cron.Cron
	cache   cacheSweeper
	pages   pagePruner
	exports exportCleaner
	cfg     MaintenanceConfig
	logger  *zap.Logger
}

// NewMaintenanceService validates the schedule and registers the job.
func NewMaintenanceService(cfg MaintenanceConfig, cache cacheSweeper, pages pagePruner, exports exportCleaner, logger *zap.Logger) (*MaintenanceService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 1m"
	}
	if cfg.CacheGC <= 0 {
		cfg.CacheGC = 5 * time.Minute
	}
	if cfg.PageIdle <= 0 {
		cfg.PageIdle = 30 * time.Minute
	}
	s := &MaintenanceService{
		cron:    cron.New(),
		cache:   cache,
		pages:   pages,
		exports: exports,
		cfg:     cfg,
		logger:  logger,
	}
	if _, err := s.cron.AddFunc(cfg.Schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start begins the schedule.
func (s *MaintenanceService) Start() {
	s.cron.Start()
	s.logger.Info("maintenance scheduled", zap.String("schedule", s.cfg.Schedule))
}

// Stop halts the schedule and waits for a running pass to finish or ctx to end.
func (s *MaintenanceService) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunOnce performs one housekeeping pass.
func (s *MaintenanceService) RunOnce() {
	fields := make([]zap.Field, 0, 3)
	if s.cache != nil {
		fields = append(fields, zap.Int("cache_evicted", s.cache.Sweep(s.cfg.CacheGC)))
	}
	if s.pages != nil {
		fields = append(fields, zap.Int("pages_pruned", s.pages.Prune(s.cfg.PageIdle)))
	}
	if s.exports != nil {
		removed, err := s.exports.Cleanup()
		if err != nil {
			s.logger.Warn("export cleanup failed", zap.Error(err))
		}
		fields = append(fields, zap.Int("exports_removed", removed))
	}
	s.logger.Debug("maintenance pass", fields...)
}
