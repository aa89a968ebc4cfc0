package index

import (
	"context"
	"sort"
	"sync"

	"github.com/zeromicro/go-zero/core/logx"

	"breadth-api/internal/model"
)

// Registry owns the symbol → base price map. It is the only writer of base
// prices, both in memory and in the durable store; everything else reads
// through Snapshot or Base.
type Registry struct {
	mu      sync.RWMutex
	bases   map[string]float64
	created map[string]int64

	store model.BasePricesModel
}

func NewRegistry(store model.BasePricesModel) *Registry {
	return &Registry{
		bases:   make(map[string]float64),
		created: make(map[string]int64),
		store:   store,
	}
}

// Load replaces the in-memory map with the durable store's contents.
func (r *Registry) Load(ctx context.Context) error {
	rows, err := r.store.List(ctx)
	if err != nil {
		return err
	}
	bases := make(map[string]float64, len(rows))
	created := make(map[string]int64, len(rows))
	for _, row := range rows {
		bases[row.Symbol] = row.Price
		created[row.Symbol] = row.CreatedAtMs
	}
	r.mu.Lock()
	r.bases, r.created = bases, created
	r.mu.Unlock()
	logx.Infof("base price registry loaded, %d symbols", len(bases))
	return nil
}

// Snapshot returns a copy of the current base map.
func (r *Registry) Snapshot() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]float64, len(r.bases))
	for symbol, price := range r.bases {
		out[symbol] = price
	}
	return out
}

// Base returns one symbol's base price.
func (r *Registry) Base(symbol string) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	price, ok := r.bases[symbol]
	return price, ok
}

// CreatedAt returns when a symbol's base was adopted, in UTC epoch millis.
func (r *Registry) CreatedAt(symbol string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ms, ok := r.created[symbol]
	return ms, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bases)
}

// AdoptIfMissing freezes price as symbol's base unless one already exists.
// The durable insert is a no-op on conflict, so a concurrent adoption of the
// same symbol converges on a single stored row.
func (r *Registry) AdoptIfMissing(ctx context.Context, symbol string, price float64, nowMs int64) (bool, error) {
	if price <= 0 {
		return false, nil
	}
	r.mu.RLock()
	_, exists := r.bases[symbol]
	r.mu.RUnlock()
	if exists {
		return false, nil
	}

	row := &model.BasePrice{Symbol: symbol, Price: price, CreatedAtMs: nowMs}
	if err := r.store.Insert(ctx, row); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bases[symbol]; exists {
		return false, nil
	}
	r.bases[symbol] = price
	r.created[symbol] = nowMs
	return true, nil
}

// AdoptBatch adopts every candidate without an existing base. Returns how
// many were adopted.
func (r *Registry) AdoptBatch(ctx context.Context, candidates map[string]float64, nowMs int64) (int, error) {
	symbols := make([]string, 0, len(candidates))
	for symbol := range candidates {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	adopted := 0
	for _, symbol := range symbols {
		ok, err := r.AdoptIfMissing(ctx, symbol, candidates[symbol], nowMs)
		if err != nil {
			return adopted, err
		}
		if ok {
			adopted++
		}
	}
	return adopted, nil
}

// ReconcileWithActive revokes the base of every symbol no longer in the
// active set. Historical candles stay; a re-listed symbol re-adopts at its
// then-current close. Returns the revoked symbols.
func (r *Registry) ReconcileWithActive(ctx context.Context, active []string) ([]string, error) {
	if len(active) == 0 {
		return nil, nil
	}
	activeSet := make(map[string]struct{}, len(active))
	for _, symbol := range active {
		activeSet[symbol] = struct{}{}
	}

	r.mu.RLock()
	var delisted []string
	for symbol := range r.bases {
		if _, ok := activeSet[symbol]; !ok {
			delisted = append(delisted, symbol)
		}
	}
	r.mu.RUnlock()
	if len(delisted) == 0 {
		return nil, nil
	}
	sort.Strings(delisted)

	var revoked []string
	for _, symbol := range delisted {
		ok, err := r.Revoke(ctx, symbol)
		if err != nil {
			return revoked, err
		}
		if ok {
			revoked = append(revoked, symbol)
			logx.WithContext(ctx).Infof("symbol %s delisted, base price revoked (history retained)", symbol)
		}
	}
	return revoked, nil
}

// Revoke removes a symbol's base from memory and store. History is untouched.
func (r *Registry) Revoke(ctx context.Context, symbol string) (bool, error) {
	if _, err := r.store.Delete(ctx, symbol); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bases[symbol]; !ok {
		return false, nil
	}
	delete(r.bases, symbol)
	delete(r.created, symbol)
	return true, nil
}
