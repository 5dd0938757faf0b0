package payments

import (
	"context"
	"time"

	pkgerrors "github.com/kestrelpay/switchboard-backend/pkg/errors"
	"github.com/kestrelpay/switchboard-backend/pkg/locking"
	"github.com/kestrelpay/switchboard-backend/pkg/logger"
	"github.com/kestrelpay/switchboard-backend/pkg/metrics"
)

// LockKeys builds the resource keys the coordinator serializes on.
// pkg/redis.Client satisfies it.
type LockKeys interface {
	PaymentLockKey(merchantID, paymentID string) string
}

// Pipeline sequences the four phases of an operation under the per-payment
// lock. One instance serves every operation variant.
type Pipeline struct {
	deps    *Deps
	locker  *locking.Coordinator
	keys    LockKeys
	metrics *metrics.PipelineMetrics
	logg    *logger.Logger
}

func NewPipeline(deps *Deps, locker *locking.Coordinator, keys LockKeys, pm *metrics.PipelineMetrics, logg *logger.Logger) *Pipeline {
	return &Pipeline{
		deps:    deps,
		locker:  locker,
		keys:    keys,
		metrics: pm,
		logg:    logg,
	}
}

// Run executes op end to end: validate, then lock, then
// GetTracker/Domain/UpdateTracker, then release. Lock contention surfaces as
// Conflict without any phase beyond validation having run.
func (p *Pipeline) Run(ctx context.Context, op Operation, req *Request, merchant MerchantContext) (*WorkingSet, error) {
	start := time.Now()

	vr, err := op.ValidateRequest(req, merchant)
	if err != nil {
		p.recordFailure(op.Name(), err)
		return nil, err
	}

	if p.logg != nil {
		ctx = p.logg.WithFields(ctx, map[string]any{
			"operation":   op.Name(),
			"merchant_id": vr.MerchantID,
			"payment_id":  vr.PaymentID,
		})
	}

	var ws *WorkingSet
	run := func(ctx context.Context) error {
		loaded, err := op.GetTracker(ctx, p.deps, vr, req)
		if err != nil {
			return err
		}
		ws = loaded

		domain, err := op.Domain(ctx, p.deps, ws, req)
		if err != nil {
			return err
		}

		// The final write finishes even when the caller has gone away, so a
		// client disconnect cannot leave the tracker half-updated.
		return op.UpdateTracker(context.WithoutCancel(ctx), p.deps, ws, domain, vr)
	}

	key := p.keys.PaymentLockKey(vr.MerchantID, vr.PaymentID)
	err = p.locker.WithLock(ctx, key, op.LockAction(), run)

	p.metrics.ObserveDuration(op.Name(), time.Since(start))
	if err != nil {
		p.recordFailure(op.Name(), err)
		if p.logg != nil {
			p.logg.Error(ctx, "payment operation failed", err)
		}
		return nil, err
	}
	p.metrics.IncSuccess(op.Name())
	if p.logg != nil {
		p.logg.Info(ctx, "payment operation completed")
	}
	return ws, nil
}

func (p *Pipeline) recordFailure(operation string, err error) {
	code := pkgerrors.CodeInternal
	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
	}
	p.metrics.IncFailure(operation, string(code))
	if code == pkgerrors.CodeConflict {
		p.metrics.IncLockContention(operation)
	}
}
