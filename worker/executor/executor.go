package executor

import (
	"context"
	"errors"
	"time"

	"lending/core"
	"lending/worker"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/property"
)

const checkpointKey = "timelock_executor_checkpoint"

// Governor the timelock as seen by the executor
type Governor interface {
	core.TimelockService
	GracePeriod() time.Duration
}

type checkpointer interface {
	Save(ctx context.Context, key string, value interface{}) error
}

// Executor executes queued calls once their eta has passed, acting as the
// proposer. Calls past the grace period are reported and left for cancellation.
type Executor struct {
	worker.BaseJob
	governor Governor
	proposer common.Address
	property checkpointer
	now      func() time.Time
}

// New new timelock executor
func New(
	governor Governor,
	proposer common.Address,
	property property.Store,
) *Executor {
	w := &Executor{
		governor: governor,
		proposer: proposer,
		property: property,
		now:      time.Now,
	}

	w.Name = "executor"
	w.OnWork = w.onWork
	return w
}

func (w *Executor) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx)

	calls, err := w.governor.Pending(ctx)
	if err != nil {
		log.WithError(err).Errorln("governor.Pending")
		return err
	}

	now := w.now()
	grace := int64(w.governor.GracePeriod() / time.Second)

	for _, call := range calls {
		log := log.WithField("call", call.ID.Hex())

		switch {
		case !call.Queued(), now.Unix() < call.Eta:
			continue
		case now.Unix() > call.Eta+grace:
			log.WithField("eta", call.Eta).Warnln("call is stale, cancel it")
			continue
		}

		if _, err := w.governor.Execute(ctx, w.proposer, &call.Call); err != nil {
			if errors.Is(err, core.ErrNotQueued) {
				// executed elsewhere
				continue
			}

			log.WithError(err).Errorln("governor.Execute")
			continue
		}

		log.WithField("signature", call.Signature).Infoln("call executed")
	}

	if err := w.property.Save(ctx, checkpointKey, now); err != nil {
		log.WithError(err).Errorln("property.Save", checkpointKey)
		return err
	}

	return nil
}
