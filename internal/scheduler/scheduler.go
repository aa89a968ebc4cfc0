// Package scheduler drives the five-minute collection tick.
package scheduler

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"breadth-api/pkg/market"
)

// tickOffset delays each tick past the bucket boundary so the exchange has
// sealed the just-closed candle.
const tickOffset = 10 * time.Second

// collectTimeout bounds one tick's fan-out and writes.
const collectTimeout = 4 * time.Minute

// Collector is the slice of the index service the scheduler drives.
type Collector interface {
	Collect(ctx context.Context) error
	BackfillComplete() bool
}

// Scheduler fires the live collector at second 10 past every five-minute
// boundary. It implements service.Service so it can join a ServiceGroup.
type Scheduler struct {
	collector Collector
	stop      chan struct{}
	done      chan struct{}
}

func New(collector Collector) *Scheduler {
	return &Scheduler{
		collector: collector,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	defer close(s.done)
	logx.Infof("collection scheduler started, next tick at %s", nextTick(time.Now()).Format(time.RFC3339))
	for {
		timer := time.NewTimer(time.Until(nextTick(time.Now())))
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
		}
		s.tick()
	}
}

func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
	logx.Info("collection scheduler stopped")
}

func (s *Scheduler) tick() {
	if !s.collector.BackfillComplete() {
		logx.Info("tick skipped, waiting for backfill to finish")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()
	if err := s.collector.Collect(ctx); err != nil {
		logx.WithContext(ctx).Errorf("collect tick: %v", err)
	}
}

// nextTick returns the next instant at second 10 past a five-minute
// boundary, strictly after now.
func nextTick(now time.Time) time.Time {
	next := market.AlignBucket(now).Add(tickOffset)
	if !next.After(now) {
		next = next.Add(market.BucketInterval)
	}
	return next
}
