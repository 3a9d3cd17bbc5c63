package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/partscart/internal/domain"
	"github.com/nikolayk812/partscart/internal/port"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

// lookupTimeout bounds a shared lookup, which outlives the caller that started it.
const lookupTimeout = 5 * time.Second

type guardedCatalog struct {
	next port.CatalogRepository
	sf   singleflight.Group
	cb   *gobreaker.CircuitBreaker
	log  *logrus.Logger
}

// NewGuardedCatalog collapses identical in-flight lookups and stops calling the
// catalog while it keeps failing. Prices are never cached.
func NewGuardedCatalog(next port.CatalogRepository, log *logrus.Logger) port.CatalogRepository {
	st := gobreaker.Settings{
		Name:        "CatalogCircuitBreaker",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		// context errors are not catalog failures
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name}).Warnf("circuit breaker state changed from %s to %s", from, to)
		},
	}

	return &guardedCatalog{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(st),
		log:  log,
	}
}

// GetProducts returns a map that may be shared with concurrent callers; treat it as read-only.
// Identical lookups share one catalog call, which is not cancelled when one of its callers goes away.
func (g *guardedCatalog) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Product, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]domain.Product{}, nil
	}

	ch := g.sf.DoChan(batchKey(ids), func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()

		return g.cb.Execute(func() (interface{}, error) {
			return g.next.GetProducts(lookupCtx, ids)
		})
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, res.Err)
		}
		return res.Val.(map[uuid.UUID]domain.Product), nil
	}
}

func batchKey(ids []uuid.UUID) string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}
	slices.Sort(keys)
	return strings.Join(keys, ",")
}
