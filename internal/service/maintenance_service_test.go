package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sweeperStub struct{ olderThan time.Duration }

func (s *sweeperStub) Sweep(olderThan time.Duration) int {
	s.olderThan = olderThan
	return 2
}

type prunerStub struct{ idle time.Duration }

func (p *prunerStub) Prune(idle time.Duration) int {
	p.idle = idle
	return 1
}

type cleanerStub struct{ runs int }

func (c *cleanerStub) Cleanup() (int, error) {
	c.runs++
	return 0, nil
}

func TestMaintenanceRunOnce(t *testing.T) {
	sweeper, pruner, cleaner := &sweeperStub{}, &prunerStub{}, &cleanerStub{}
	svc, err := NewMaintenanceService(MaintenanceConfig{Schedule: "@every 1h", CacheGC: time.Minute}, sweeper, pruner, cleaner, zap.NewNop())
	require.NoError(t, err)

	svc.RunOnce()
	assert.Equal(t, time.Minute, sweeper.olderThan)
	assert.Equal(t, 30*time.Minute, pruner.idle)
	assert.Equal(t, 1, cleaner.runs)

	svc.Start()
	svc.Stop(context.Background())
}

func TestMaintenanceRejectsBadSchedule(t *testing.T) {
	_, err := NewMaintenanceService(MaintenanceConfig{Schedule: "every tuesday"}, nil, nil, nil, nil)
	assert.Error(t, err)
}
