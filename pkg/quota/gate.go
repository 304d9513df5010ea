package quota

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hirelens/billingkit/pkg/plan"
	"github.com/hirelens/billingkit/pkg/tenant"
	"github.com/hirelens/billingkit/pkg/usage"
)

// Recorder appends a usage event. *usage.Ledger satisfies it.
type Recorder interface {
	Record(ctx context.Context, scope tenant.Scope, eventType usage.EventType, opts ...usage.RecordOption) (uuid.UUID, error)
}

// Gate is the write-side companion of Enforcer: it serializes
// check-then-record per (tenant, limit) so two concurrent requests at
// the ceiling cannot both slip through.
type Gate struct {
	enforcer *Enforcer
	recorder Recorder

	mu    sync.Mutex
	locks map[gateKey]*sync.Mutex
}

type gateKey struct {
	tenantID uuid.UUID
	limit    plan.Limit
}

// NewGate panics if either dependency is nil.
func NewGate(enforcer *Enforcer, recorder Recorder) *Gate {
	if enforcer == nil {
		panic("quota: enforcer is required")
	}
	if recorder == nil {
		panic("quota: recorder is required")
	}
	return &Gate{
		enforcer: enforcer,
		recorder: recorder,
		locks:    make(map[gateKey]*sync.Mutex),
	}
}

// Allow checks the limit and, when within quota, records one unit of
// consumption. Over-limit requests are rejected with ErrQuotaExceeded
// and leave no trace in the ledger.
//
// The per-key mutex is never released back; the map grows with the
// number of distinct (tenant, limit) pairs seen by this process, which
// is bounded by the active tenant count.
func (g *Gate) Allow(ctx context.Context, scope tenant.Scope, limit plan.Limit, opts ...usage.RecordOption) error {
	lock := g.lockFor(gateKey{tenantID: scope.TenantID, limit: limit})
	lock.Lock()
	defer lock.Unlock()

	v, err := g.enforcer.Check(ctx, scope, limit)
	if err != nil {
		return err
	}
	if v.Exceeded {
		return fmt.Errorf("%w: %s at %d of %d", ErrQuotaExceeded, limit, v.Current, v.Limit)
	}

	eventType, err := eventTypeFor(limit)
	if err != nil {
		return err
	}
	if _, err := g.recorder.Record(ctx, scope, eventType, opts...); err != nil {
		return err
	}
	if limit == plan.LimitAPICalls && g.enforcer.window != nil {
		if _, err := g.enforcer.window.Incr(ctx, scope.TenantID.String(), g.enforcer.now()); err != nil {
			return err
		}
	}
	return nil
}

func (g *Gate) lockFor(key gateKey) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	lock, ok := g.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[key] = lock
	}
	return lock
}

func eventTypeFor(limit plan.Limit) (usage.EventType, error) {
	switch limit {
	case plan.LimitUploads:
		return usage.EventUpload, nil
	case plan.LimitAnalyses:
		return usage.EventAnalysis, nil
	case plan.LimitAPICalls:
		return usage.EventAPICall, nil
	case plan.LimitStorageBytes:
		return usage.EventStorageDelta, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLimit, limit)
	}
}
