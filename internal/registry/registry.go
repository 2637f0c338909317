// Package registry manages the set of named liquidity pools, serializes
// access to each pool, and keeps the snapshot store in sync with every
// mutation.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unstakepool/internal/fixedpoint"
	"unstakepool/internal/logger"
	"unstakepool/internal/pool"
	"unstakepool/internal/store"
)

// ErrPoolNotFound is returned when no pool exists for the requested ID.
var ErrPoolNotFound = errors.New("pool not found")

// ErrDuplicateName is returned when creating a pool with a name already in use.
var ErrDuplicateName = errors.New("pool name already in use")

// Params are the constructor parameters for a new pool.
type Params struct {
	Price           fixedpoint.Price
	MinFee          fixedpoint.Percentage
	MaxFee          fixedpoint.Percentage
	LiquidityTarget fixedpoint.TokenAmount
}

// PoolInfo is a point-in-time view of a registered pool.
type PoolInfo struct {
	ID              string
	Name            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Price           fixedpoint.Price
	MinFee          fixedpoint.Percentage
	MaxFee          fixedpoint.Percentage
	LiquidityTarget fixedpoint.TokenAmount
	TokenAmount     fixedpoint.TokenAmount
	StTokenAmount   fixedpoint.StakedTokenAmount
	LpTokenAmount   fixedpoint.LpTokenAmount
}

// registeredPool pairs a pool with its metadata and the lock that serializes
// operations on it.
type registeredPool struct {
	mu        sync.Mutex
	id        string
	name      string
	createdAt time.Time
	updatedAt time.Time
	pool      *pool.Pool
}

// infoLocked builds a PoolInfo. The caller must hold e.mu.
func (e *registeredPool) infoLocked() PoolInfo {
	tokens, staked, lpTokens := e.pool.Balances()
	minFee, maxFee, target := e.pool.Params()
	return PoolInfo{
		ID:              e.id,
		Name:            e.name,
		CreatedAt:       e.createdAt,
		UpdatedAt:       e.updatedAt,
		Price:           e.pool.Price(),
		MinFee:          minFee,
		MaxFee:          maxFee,
		LiquidityTarget: target,
		TokenAmount:     tokens,
		StTokenAmount:   staked,
		LpTokenAmount:   lpTokens,
	}
}

// recordLocked builds the persistence record. The caller must hold e.mu.
func (e *registeredPool) recordLocked() store.Record {
	return store.Record{
		ID:        e.id,
		Name:      e.name,
		CreatedAt: e.createdAt.Unix(),
		UpdatedAt: e.updatedAt.Unix(),
		State:     e.pool.Snapshot(),
	}
}

// Registry manages pools and their persistence.
type Registry struct {
	mu    sync.RWMutex
	pools map[string]*registeredPool
	names map[string]string
	store store.SnapshotStore
}

// New creates a registry backed by the given snapshot store.
func New(st store.SnapshotStore) *Registry {
	return &Registry{
		pools: make(map[string]*registeredPool),
		names: make(map[string]string),
		store: st,
	}
}

// Load restores all pools from the snapshot store. Called once at startup.
func (r *Registry) Load(ctx context.Context) error {
	log := logger.FromContext(ctx)

	records, err := r.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stored pools: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range records {
		p, err := pool.FromSnapshot(record.State)
		if err != nil {
			return fmt.Errorf("failed to restore pool %s: %w", record.ID, err)
		}
		r.pools[record.ID] = &registeredPool{
			id:        record.ID,
			name:      record.Name,
			createdAt: time.Unix(record.CreatedAt, 0).UTC(),
			updatedAt: time.Unix(record.UpdatedAt, 0).UTC(),
			pool:      p,
		}
		r.names[record.Name] = record.ID
	}

	log.Info("Pools restored from store", zap.Int("pool_count", len(records)))
	return nil
}

// Create registers a new empty pool under the given name.
func (r *Registry) Create(ctx context.Context, name string, params Params) (PoolInfo, error) {
	if name == "" {
		return PoolInfo{}, fmt.Errorf("pool name is required")
	}

	p, err := pool.New(params.Price, params.MinFee, params.MaxFee, params.LiquidityTarget)
	if err != nil {
		return PoolInfo{}, err
	}

	now := time.Now().UTC()
	entry := &registeredPool{
		id:        uuid.NewString(),
		name:      name,
		createdAt: now,
		updatedAt: now,
		pool:      p,
	}

	// reserve the name before the store round trip; the registry lock only
	// guards the maps, never a network call
	r.mu.Lock()
	if _, exists := r.names[name]; exists {
		r.mu.Unlock()
		return PoolInfo{}, fmt.Errorf("%q: %w", name, ErrDuplicateName)
	}
	r.names[name] = entry.id
	r.mu.Unlock()

	if err := r.store.Put(ctx, entry.recordLocked()); err != nil {
		r.mu.Lock()
		delete(r.names, name)
		r.mu.Unlock()
		return PoolInfo{}, fmt.Errorf("failed to persist pool: %w", err)
	}

	// build the view while the entry is still unshared
	info := entry.infoLocked()

	r.mu.Lock()
	r.pools[entry.id] = entry
	r.mu.Unlock()

	logger.FromContext(ctx).Info("Pool created",
		zap.String("pool_id", entry.id),
		zap.String("name", name))

	return info, nil
}

// Get returns a view of the pool with the given ID.
func (r *Registry) Get(id string) (PoolInfo, error) {
	entry, err := r.entry(id)
	if err != nil {
		return PoolInfo{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.infoLocked(), nil
}

// List returns views of all pools, sorted by name.
func (r *Registry) List() []PoolInfo {
	r.mu.RLock()
	entries := make([]*registeredPool, 0, len(r.pools))
	for _, entry := range r.pools {
		entries = append(entries, entry)
	}
	r.mu.RUnlock()

	infos := make([]PoolInfo, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		infos = append(infos, entry.infoLocked())
		entry.mu.Unlock()
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Remove deletes a pool and its stored snapshot.
func (r *Registry) Remove(ctx context.Context, id string) error {
	entry, err := r.entry(id)
	if err != nil {
		return err
	}

	if err := r.store.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to delete stored pool: %w", err)
	}

	r.mu.Lock()
	delete(r.pools, id)
	delete(r.names, entry.name)
	r.mu.Unlock()

	logger.FromContext(ctx).Info("Pool removed",
		zap.String("pool_id", id),
		zap.String("name", entry.name))

	return nil
}

// Count returns the number of registered pools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}

// AddLiquidity deposits tokens into a pool and returns the LP tokens granted
// plus the updated pool view.
func (r *Registry) AddLiquidity(ctx context.Context, id string, amount fixedpoint.TokenAmount) (fixedpoint.LpTokenAmount, PoolInfo, error) {
	var lpOut fixedpoint.LpTokenAmount
	info, err := r.mutate(ctx, id, func(p *pool.Pool) error {
		var err error
		lpOut, err = p.AddLiquidity(amount)
		return err
	})
	return lpOut, info, err
}

// RemoveLiquidity burns LP tokens and returns the withdrawn amounts plus the
// updated pool view.
func (r *Registry) RemoveLiquidity(ctx context.Context, id string, lpIn fixedpoint.LpTokenAmount) (fixedpoint.TokenAmount, fixedpoint.StakedTokenAmount, PoolInfo, error) {
	var (
		tokenOut  fixedpoint.TokenAmount
		stakedOut fixedpoint.StakedTokenAmount
	)
	info, err := r.mutate(ctx, id, func(p *pool.Pool) error {
		var err error
		tokenOut, stakedOut, err = p.RemoveLiquidity(lpIn)
		return err
	})
	return tokenOut, stakedOut, info, err
}

// Swap exchanges staked tokens for unstaked tokens and returns the executed
// quote plus the updated pool view.
func (r *Registry) Swap(ctx context.Context, id string, stakedIn fixedpoint.StakedTokenAmount) (pool.Quote, PoolInfo, error) {
	var quote pool.Quote
	info, err := r.mutate(ctx, id, func(p *pool.Pool) error {
		var err error
		quote, err = p.QuoteSwap(stakedIn)
		if err != nil {
			return err
		}
		_, err = p.Swap(stakedIn)
		return err
	})
	return quote, info, err
}

// QuoteSwap previews a swap without changing pool state.
func (r *Registry) QuoteSwap(id string, stakedIn fixedpoint.StakedTokenAmount) (pool.Quote, error) {
	entry, err := r.entry(id)
	if err != nil {
		return pool.Quote{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.pool.QuoteSwap(stakedIn)
}

// SetPrice updates a pool's staked token price.
func (r *Registry) SetPrice(ctx context.Context, id string, price fixedpoint.Price) (PoolInfo, error) {
	return r.mutate(ctx, id, func(p *pool.Pool) error {
		return p.SetPrice(price)
	})
}

// mutate runs op against a pool under its lock and persists the result.
// The store is authoritative: when Put fails the operation is rolled back so
// the in-memory pool never diverges from what was persisted, and a client
// retry starts from the same state it was told about.
func (r *Registry) mutate(ctx context.Context, id string, op func(*pool.Pool) error) (PoolInfo, error) {
	entry, err := r.entry(id)
	if err != nil {
		return PoolInfo{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	prevPool := *entry.pool
	prevUpdatedAt := entry.updatedAt

	if err := op(entry.pool); err != nil {
		return PoolInfo{}, err
	}
	entry.updatedAt = time.Now().UTC()

	if err := r.store.Put(ctx, entry.recordLocked()); err != nil {
		*entry.pool = prevPool
		entry.updatedAt = prevUpdatedAt
		return PoolInfo{}, fmt.Errorf("failed to persist pool: %w", err)
	}

	return entry.infoLocked(), nil
}

func (r *Registry) entry(id string) (*registeredPool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.pools[id]
	if !exists {
		return nil, fmt.Errorf("%q: %w", id, ErrPoolNotFound)
	}
	return entry, nil
}
