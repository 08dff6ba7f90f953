package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fox-one/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Worker a background job, Run blocks until ctx is done
type Worker interface {
	Run(ctx context.Context) error
}

type OnWork func(ctx context.Context) error

// BaseJob a cron scheduled job. Ticks that fire while the previous one is
// still working are skipped.
type BaseJob struct {
	Name   string
	Cron   *cron.Cron
	OnWork OnWork

	running int32
	ctx     context.Context
}

// Schedule create the cron in location and register expr, "@every 10s" or a
// standard five field expression
func (job *BaseJob) Schedule(location, expr string) error {
	l, err := time.LoadLocation(location)
	if err != nil {
		return err
	}

	job.Cron = cron.New(cron.WithLocation(l))
	_, err = job.Cron.AddFunc(expr, job.Tick)
	return err
}

// Run start the cron and block until ctx is done
func (job *BaseJob) Run(ctx context.Context) error {
	job.ctx = logger.WithContext(ctx, logger.FromContext(ctx).WithField("worker", job.Name))
	job.Cron.Start()

	<-ctx.Done()
	<-job.Cron.Stop().Done()
	return nil
}

// Tick run OnWork once unless a previous tick is still running
func (job *BaseJob) Tick() {
	if !atomic.CompareAndSwapInt32(&job.running, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&job.running, 0)

	ctx := job.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if err := job.OnWork(ctx); err != nil {
		logger.FromContext(ctx).WithError(err).Debugln("tick failed")
	}
}
