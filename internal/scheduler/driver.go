// Package scheduler drives the periodic automation passes. The passes
// themselves live in the service layer; the driver only owns cadence
// and cross-instance locking.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/autotickets/autotickets/internal/config"
	"github.com/autotickets/autotickets/internal/service"
)

const lockKey = "scheduler:pass:lock"

// Driver runs the tacit-acceptance and automation-rule passes on a
// fixed interval. When several instances share a redis, a SETNX lock
// ensures only one of them runs each tick.
type Driver struct {
	passes *service.SchedulerService
	redis  *redis.Client
	cfg    config.SchedulerConfig
	logger *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewDriver(passes *service.SchedulerService, redisClient *redis.Client, cfg config.SchedulerConfig, logger *zap.Logger) *Driver {
	return &Driver{
		passes: passes,
		redis:  redisClient,
		cfg:    cfg,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the loop in its own goroutine. A short startup delay
// lets the rest of the process finish wiring before the first pass.
func (d *Driver) Start() {
	if !d.cfg.Enabled {
		d.logger.Info("scheduler disabled")
		close(d.done)
		return
	}
	go d.run()
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
	<-d.done
}

func (d *Driver) run() {
	defer close(d.done)

	select {
	case <-time.After(d.cfg.StartupDelay()):
	case <-d.stop:
		return
	}
	d.tick()

	ticker := time.NewTicker(d.cfg.TickInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.tick()
		case <-d.stop:
			return
		}
	}
}

func (d *Driver) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if !d.acquireLock(ctx) {
		d.logger.Debug("scheduler: another instance holds the pass lock")
		return
	}
	defer d.releaseLock()

	if _, err := d.passes.RunTacitAcceptancePass(ctx); err != nil {
		d.logger.Error("scheduler: tacit acceptance pass failed", zap.Error(err))
	}
	if _, err := d.passes.RunAutomationRulePass(ctx); err != nil {
		d.logger.Error("scheduler: automation rule pass failed", zap.Error(err))
	}
}

// acquireLock takes the cross-instance lock. Without redis the driver
// assumes a single instance and always proceeds.
func (d *Driver) acquireLock(ctx context.Context) bool {
	if d.redis == nil {
		return true
	}
	ok, err := d.redis.SetNX(ctx, lockKey, time.Now().UTC().Format(time.RFC3339), d.cfg.LockTTL()).Result()
	if err != nil {
		d.logger.Warn("scheduler: lock acquire failed, proceeding without lock", zap.Error(err))
		return true
	}
	return ok
}

func (d *Driver) releaseLock() {
	if d.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.redis.Del(ctx, lockKey).Err(); err != nil {
		d.logger.Warn("scheduler: lock release failed", zap.Error(err))
	}
}
