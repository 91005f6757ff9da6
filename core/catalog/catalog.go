package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/TamimulAhsan/sentineliam/core/infra/bus"
	"github.com/TamimulAhsan/sentineliam/core/infra/logging"
	"github.com/TamimulAhsan/sentineliam/core/infra/memory"
	"github.com/TamimulAhsan/sentineliam/core/infra/metrics"
	"github.com/TamimulAhsan/sentineliam/core/notify"
	"github.com/TamimulAhsan/sentineliam/core/policy"
)

// Status is the catalog lifecycle state.
type Status string

const (
	StatusEmpty     Status = "empty"
	StatusLoading   Status = "loading"
	StatusPopulated Status = "populated"
	StatusError     Status = "error"
)

// Store is the remote policy store surface the catalog consumes. It is
// satisfied by sdk/client.Client.
type Store interface {
	ListPolicies(ctx context.Context) ([]policy.Record, error)
	PatchDocument(ctx context.Context, id policy.ID, doc any) (*policy.Record, error)
	DeletePolicy(ctx context.Context, id policy.ID) error
}

// Options carries the optional collaborators a catalog can be wired with.
type Options struct {
	Metrics metrics.Metrics
	Events  bus.Publisher
	Notices *notify.Center
	Cache   memory.SnapshotCache
}

// Catalog is the single authoritative in-memory policy collection. Records
// are keyed by id with insertion order preserved, independent of any display
// order. All mutations leave the catalog consistent even under failure:
// load retains the prior snapshot, save is pessimistic, delete is optimistic
// with full rollback.
type Catalog struct {
	mu      sync.Mutex
	store   Store
	status  Status
	lastErr string
	stale   bool
	order   []policy.ID
	byID    map[policy.ID]*policy.Record
	loadSeq uint64

	metrics metrics.Metrics
	events  bus.Publisher
	notices *notify.Center
	cache   memory.SnapshotCache
}

type catalogLoadedEvent struct {
	Count int `json:"count"`
}

type policySavedEvent struct {
	ID           string `json:"id"`
	RiskScore    int    `json:"risk_score"`
	IsVulnerable bool   `json:"is_vulnerable"`
}

type policyDeletedEvent struct {
	ID string `json:"id"`
}

// New constructs an empty catalog over the given store.
func New(store Store, opts Options) *Catalog {
	c := &Catalog{
		store:   store,
		status:  StatusEmpty,
		byID:    map[policy.ID]*policy.Record{},
		metrics: opts.Metrics,
		events:  opts.Events,
		notices: opts.Notices,
		cache:   opts.Cache,
	}
	if c.metrics == nil {
		c.metrics = metrics.Noop{}
	}
	if c.events == nil {
		c.events = bus.Noop{}
	}
	return c
}

// Init performs the first load. Calling it on an already hydrated catalog is
// a no-op so rendering layers can call it freely.
func (c *Catalog) Init(ctx context.Context) error {
	c.mu.Lock()
	empty := c.status == StatusEmpty
	c.mu.Unlock()
	if !empty {
		return nil
	}
	return c.Load(ctx)
}

// Reset discards all records and derived state, then reloads.
func (c *Catalog) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.order = nil
	c.byID = map[policy.ID]*policy.Record{}
	c.status = StatusEmpty
	c.lastErr = ""
	c.stale = false
	c.mu.Unlock()
	return c.Load(ctx)
}

// Load replaces the whole collection with a fresh store snapshot. A load
// issued while another is pending wins over it: the earlier result is
// discarded when responses return out of order. On failure the previously
// populated collection is kept; a stale view beats an empty one.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.status = StatusLoading
	c.mu.Unlock()

	records, err := c.store.ListPolicies(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.loadSeq {
		// A newer load is in flight or already landed; this result is stale.
		return nil
	}

	if err != nil {
		c.status = StatusError
		c.lastErr = err.Error()
		cerr := opError(OpLoad, err)
		c.metrics.IncLoads("error")
		c.pushNotice(cerr.Error())
		if len(c.order) == 0 {
			c.hydrateFromCacheLocked(ctx)
		}
		return cerr
	}

	c.order = c.order[:0]
	c.byID = make(map[policy.ID]*policy.Record, len(records))
	for i := range records {
		rec := records[i]
		if _, dup := c.byID[rec.ID]; dup {
			continue
		}
		c.order = append(c.order, rec.ID)
		c.byID[rec.ID] = &rec
	}
	c.status = StatusPopulated
	c.lastErr = ""
	c.stale = false
	c.metrics.IncLoads("ok")
	c.publish(bus.SubjectCatalogLoaded, catalogLoadedEvent{Count: len(c.order)})
	c.writeCacheLocked(ctx)
	return nil
}

// Save patches one record's document through the store. The catalog does not
// change until the server confirms; on success the matching record is
// replaced in place with the server's authoritative response and every other
// record keeps its identity and position.
func (c *Catalog) Save(ctx context.Context, id policy.ID, doc any) (*policy.Record, error) {
	c.mu.Lock()
	_, ok := c.byID[id]
	c.mu.Unlock()
	if !ok {
		err := opError(OpSave, fmt.Errorf("unknown policy id %q", id))
		c.metrics.IncSaves("error")
		c.pushNotice(err.Error())
		return nil, err
	}

	updated, err := c.store.PatchDocument(ctx, id, doc)
	if err != nil {
		cerr := opError(OpSave, err)
		c.metrics.IncSaves("error")
		c.pushNotice(cerr.Error())
		return nil, cerr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, present := c.byID[id]; !present {
		// The record was deleted while the save was in flight. Mutations are
		// not serialized per id; the removal stands and the save result is
		// dropped from the catalog, so no saved event or ok count is emitted.
		logging.Warn("catalog", "save resolved for a deleted record", "id", id.String())
		out := *updated
		return &out, nil
	}
	c.byID[id] = updated
	c.metrics.IncSaves("ok")
	c.publish(bus.SubjectPolicySaved, policySavedEvent{
		ID:           id.String(),
		RiskScore:    updated.RiskScore,
		IsVulnerable: updated.IsVulnerable,
	})
	c.writeCacheLocked(ctx)
	out := *updated
	return &out, nil
}

// Delete removes one record optimistically: the in-memory removal happens
// before the network call resolves. A store failure restores the exact prior
// snapshot, same records in the same order.
func (c *Catalog) Delete(ctx context.Context, id policy.ID) error {
	c.mu.Lock()
	if _, ok := c.byID[id]; !ok {
		c.mu.Unlock()
		err := opError(OpDelete, fmt.Errorf("unknown policy id %q", id))
		c.metrics.IncDeletes("error")
		c.pushNotice(err.Error())
		return err
	}
	prevOrder := make([]policy.ID, len(c.order))
	copy(prevOrder, c.order)
	prevByID := make(map[policy.ID]*policy.Record, len(c.byID))
	for k, v := range c.byID {
		prevByID[k] = v
	}
	seq := c.loadSeq
	c.removeLocked(id)
	c.mu.Unlock()

	err := c.store.DeletePolicy(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		// Restore only if no load was issued since the snapshot was taken;
		// rolling back over a fresh collection would resurrect stale records.
		if seq == c.loadSeq {
			c.order = prevOrder
			c.byID = prevByID
		}
		cerr := opError(OpDelete, err)
		c.metrics.IncDeletes("error")
		c.pushNotice(cerr.Error())
		return cerr
	}
	c.metrics.IncDeletes("ok")
	c.publish(bus.SubjectPolicyDeleted, policyDeletedEvent{ID: id.String()})
	c.writeCacheLocked(ctx)
	return nil
}

// Snapshot returns the records in insertion order. Callers treat the result
// as immutable during a render pass.
func (c *Catalog) Snapshot() []policy.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]policy.Record, 0, len(c.order))
	for _, id := range c.order {
		if rec, ok := c.byID[id]; ok {
			out = append(out, *rec)
		}
	}
	return out
}

// Get returns a copy of one record by id.
func (c *Catalog) Get(id policy.ID) (policy.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.byID[id]
	if !ok {
		return policy.Record{}, false
	}
	return *rec, true
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Status returns the lifecycle state.
func (c *Catalog) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// LastError returns the most recent load failure message, empty after a
// successful load.
func (c *Catalog) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Stale reports whether the current records came from the snapshot cache
// rather than a successful load.
func (c *Catalog) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

func (c *Catalog) removeLocked(id policy.ID) {
	delete(c.byID, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *Catalog) hydrateFromCacheLocked(ctx context.Context) {
	if c.cache == nil {
		return
	}
	records, err := c.cache.Get(ctx)
	if err != nil {
		if err != memory.ErrNoSnapshot {
			logging.Warn("catalog", "snapshot cache read failed", "err", err)
		}
		return
	}
	for i := range records {
		rec := records[i]
		if _, dup := c.byID[rec.ID]; dup {
			continue
		}
		c.order = append(c.order, rec.ID)
		c.byID[rec.ID] = &rec
	}
	c.stale = true
	logging.Info("catalog", "serving cached snapshot", "count", len(c.order))
}

func (c *Catalog) writeCacheLocked(ctx context.Context) {
	if c.cache == nil {
		return
	}
	records := make([]policy.Record, 0, len(c.order))
	for _, id := range c.order {
		if rec, ok := c.byID[id]; ok {
			records = append(records, *rec)
		}
	}
	if err := c.cache.Put(ctx, records); err != nil {
		logging.Warn("catalog", "snapshot cache write failed", "err", err)
	}
}

func (c *Catalog) publish(subject string, event any) {
	if err := c.events.Publish(subject, event); err != nil {
		logging.Warn("catalog", "event publish failed", "subject", subject, "err", err)
	}
}

func (c *Catalog) pushNotice(message string) {
	if c.notices != nil {
		c.notices.Push(notify.LevelError, message)
	}
}
