package index

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/zeromicro/go-zero/core/collection"

	"breadth-api/internal/cache"
	"breadth-api/internal/model"
	"breadth-api/pkg/market"
)

// Dependencies carries everything the index service needs injected.
type Dependencies struct {
	Candles    model.CandlesModel
	Index      model.MarketIndexModel
	BasePrices model.BasePricesModel
	Provider   market.Provider
}

func (d Dependencies) Validate() error {
	if d.Candles == nil {
		return errors.New("index: missing Candles dependency")
	}
	if d.Index == nil {
		return errors.New("index: missing Index dependency")
	}
	if d.BasePrices == nil {
		return errors.New("index: missing BasePrices dependency")
	}
	if d.Provider == nil {
		return errors.New("index: missing Provider dependency")
	}
	return nil
}

// Config tunes the collection and backfill pipeline.
type Config struct {
	BackfillDays        int
	BackfillConcurrency int
	CollectConcurrency  int
	// RequestInterval is the pause between paginated fetches inside one
	// backfill worker, mirroring the provider's per-page throttle.
	RequestInterval time.Duration
}

func (c *Config) fillDefaults() {
	if c.BackfillDays <= 0 {
		c.BackfillDays = 7
	}
	if c.BackfillConcurrency <= 0 {
		c.BackfillConcurrency = 5
	}
	if c.CollectConcurrency <= 0 {
		c.CollectConcurrency = 8
	}
}

// Service owns the breadth-index pipeline: live collection, backfill, gap
// repair, and the query surface.
type Service struct {
	deps Dependencies
	conf Config

	registry *Registry

	uptrendCache *collection.Cache
	cacheGen     atomic.Uint64

	backfillInProgress atomic.Bool
	backfillComplete   atomic.Bool
}

func NewService(deps Dependencies, conf Config) (*Service, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	conf.fillDefaults()

	uptrendCache, err := cache.NewUptrendCache()
	if err != nil {
		return nil, err
	}
	return &Service{
		deps:         deps,
		conf:         conf,
		registry:     NewRegistry(deps.BasePrices),
		uptrendCache: uptrendCache,
	}, nil
}

// Registry exposes the base-price registry for wiring and tests.
func (s *Service) Registry() *Registry {
	return s.registry
}

// BackfillInProgress reports whether a backfill run currently holds the
// pipeline.
func (s *Service) BackfillInProgress() bool {
	return s.backfillInProgress.Load()
}

// BackfillComplete reports whether live collection is allowed to run.
func (s *Service) BackfillComplete() bool {
	return s.backfillComplete.Load()
}

// MarkBackfillComplete unblocks live collection without running a backfill.
func (s *Service) MarkBackfillComplete() {
	s.backfillComplete.Store(true)
}

// InvalidateUptrendCache makes every cached uptrend computation unreachable.
// Bumping the generation changes all future keys; stale entries age out of
// the LRU on their own.
func (s *Service) InvalidateUptrendCache() {
	s.cacheGen.Add(1)
}

// RateLimited reports the exchange tripwire state.
func (s *Service) RateLimited() (bool, string) {
	return s.deps.Provider.RateLimited()
}

// ResetRateLimit releases the exchange tripwire and reports whether it was
// latched.
func (s *Service) ResetRateLimit() bool {
	latched, _ := s.deps.Provider.RateLimited()
	s.deps.Provider.ResetRateLimit()
	return latched
}
