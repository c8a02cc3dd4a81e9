package timecard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Tiliavir/trivial-timecard/internal/model"
	"github.com/Tiliavir/trivial-timecard/internal/storage"
	"github.com/Tiliavir/trivial-timecard/internal/timecalc"
)

const (
	DefaultDebounce    = time.Second
	DefaultConcurrency = 5
)

// Backend persists entries for one employee. *api.Client implements it.
type Backend interface {
	FetchRange(ctx context.Context, from, to time.Time) ([]model.TimeEntry, error)
	Create(ctx context.Context, entry model.TimeEntry) (model.TimeEntry, error)
	Update(ctx context.Context, entry model.TimeEntry) (model.TimeEntry, error)
}

// Store is the client-durable key/value store holding the chosen start date.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// State is the sync state of one entry.
type State int

const (
	StateClean State = iota
	StateDirty
	StateSyncing
)

func (s State) String() string {
	switch s {
	case StateDirty:
		return "dirty"
	case StateSyncing:
		return "syncing"
	default:
		return "clean"
	}
}

// NoticeKind classifies a Notice.
type NoticeKind int

const (
	NoticeRejected NoticeKind = iota
	NoticeSyncFailed
	NoticeCreateFailed
	NoticeSubmitted
	NoticeAlreadySubmitted
)

// Notice is a user-facing event raised by the controller.
type Notice struct {
	Kind NoticeKind
	// Date is the entry date, or the period start for period-wide notices.
	Date string
	Err  error
	// RolledBack is set on NoticeSyncFailed when the entry was restored to
	// its last saved values.
	RolledBack bool
}

func (n Notice) String() string {
	switch n.Kind {
	case NoticeRejected:
		return fmt.Sprintf("%s: entry is submitted, edit discarded", n.Date)
	case NoticeSyncFailed:
		if n.RolledBack {
			return fmt.Sprintf("%s: save failed, restored last saved values: %v", n.Date, n.Err)
		}
		return fmt.Sprintf("%s: save failed, newer edit pending: %v", n.Date, n.Err)
	case NoticeCreateFailed:
		return fmt.Sprintf("%s: could not create entry, retrying on first edit: %v", n.Date, n.Err)
	case NoticeSubmitted:
		return fmt.Sprintf("timecard period starting %s submitted", n.Date)
	case NoticeAlreadySubmitted:
		return fmt.Sprintf("timecard period starting %s was already submitted", n.Date)
	}
	return n.Date
}

// Options configures a Controller.
type Options struct {
	Backend Backend
	Store   Store
	// Debounce is the quiet time after the last edit of an entry before it
	// is saved. Zero means DefaultDebounce.
	Debounce time.Duration
	// Concurrency bounds parallel backend requests during load and submit.
	Concurrency int
	// Notify receives notices. It may be called from timer goroutines.
	Notify func(Notice)
}

// Controller owns the active period: it loads and reconciles entries, saves
// edits after a debounce window, rolls back failed saves and submits the
// period.
type Controller struct {
	backend  Backend
	store    Store
	debounce time.Duration
	limit    int
	notify   func(Notice)

	ctx    context.Context
	cancel context.CancelFunc
	// wg tracks scheduled and running debounce callbacks.
	wg sync.WaitGroup

	mu     sync.Mutex
	closed bool
	loaded bool
	// epoch changes whenever the period is replaced, so late results of an
	// old period are dropped.
	epoch     uint64
	period    model.Period
	confirmed map[string]model.TimeEntry
	states    map[string]State
	gens      map[string]uint64
	timers    map[string]*time.Timer
	locks     map[string]*sync.Mutex
}

// New creates a controller. Nothing is loaded until Begin or Load.
func New(opts Options) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		backend:   opts.Backend,
		store:     opts.Store,
		debounce:  opts.Debounce,
		limit:     opts.Concurrency,
		notify:    opts.Notify,
		ctx:       ctx,
		cancel:    cancel,
		confirmed: map[string]model.TimeEntry{},
		states:    map[string]State{},
		gens:      map[string]uint64{},
		timers:    map[string]*time.Timer{},
		locks:     map[string]*sync.Mutex{},
	}
}

// Begin starts a new period for ref: the period start is stored durably and
// the period is loaded.
func (c *Controller) Begin(ctx context.Context, ref time.Time) (model.Period, error) {
	start := timecalc.PeriodStart(ref)
	if err := c.store.Set(storage.KeyStartDate, timecalc.FormatDate(start)); err != nil {
		return model.Period{}, fmt.Errorf("storing start date: %w", err)
	}
	return c.Load(ctx)
}

// Load reads the stored start date, fetches the persisted entries of its
// period and reconciles them with the weekday skeleton. Dates without a
// persisted entry are created upstream right away; a failed create leaves the
// entry without an id until its first edit.
//
// If the fetch fails, Load installs a degraded period of placeholders and
// returns it together with an error wrapping ErrNetworkFailure.
func (c *Controller) Load(ctx context.Context) (model.Period, error) {
	raw, ok, err := c.store.Get(storage.KeyStartDate)
	if err != nil {
		return model.Period{}, fmt.Errorf("reading start date: %w", err)
	}
	if !ok || raw == "" {
		return model.Period{}, ErrNoActivePeriod
	}
	ref, err := timecalc.ParseDate(raw)
	if err != nil {
		return model.Period{}, fmt.Errorf("stored start date: %w", err)
	}
	start := timecalc.PeriodStart(ref)

	persisted, err := c.backend.FetchRange(ctx, start, start.AddDate(0, 0, timecalc.PeriodDays-1))
	if err != nil {
		c.install(model.Period{Start: start, Entries: Reconcile(start, nil), Degraded: true})
		return c.Period(), fmt.Errorf("loading period %s: %w: %w", timecalc.FormatDate(start), ErrNetworkFailure, err)
	}

	entries := Reconcile(start, persisted)
	notices := c.createMissing(ctx, entries)
	c.install(model.Period{Start: start, Entries: entries})
	for _, n := range notices {
		c.emit(n)
	}
	return c.Period(), nil
}

func (c *Controller) createMissing(ctx context.Context, entries []model.TimeEntry) []Notice {
	var (
		mu      sync.Mutex
		notices []Notice
	)
	g := new(errgroup.Group)
	g.SetLimit(c.limit)
	for i := range entries {
		if entries[i].Persisted() {
			continue
		}
		g.Go(func() error {
			saved, err := c.backend.Create(ctx, entries[i])
			if err != nil {
				mu.Lock()
				notices = append(notices, Notice{
					Kind: NoticeCreateFailed,
					Date: entries[i].Date,
					Err:  fmt.Errorf("%w: %w", ErrNetworkFailure, err),
				})
				mu.Unlock()
				return nil
			}
			entries[i].ID = saved.ID
			return nil
		})
	}
	_ = g.Wait()
	return notices
}

func (c *Controller) install(p model.Period) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimersLocked()
	c.epoch++
	c.period = p
	c.loaded = true
	c.confirmed = make(map[string]model.TimeEntry, len(p.Entries))
	c.states = make(map[string]State, len(p.Entries))
	c.gens = make(map[string]uint64, len(p.Entries))
	for _, e := range p.Entries {
		c.confirmed[e.Date] = e.Clone()
		c.states[e.Date] = StateClean
	}
}

// Period returns a copy of the active period.
func (c *Controller) Period() model.Period {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.period
	p.Entries = make([]model.TimeEntry, len(c.period.Entries))
	for i, e := range c.period.Entries {
		p.Entries[i] = e.Clone()
	}
	return p
}

// State returns the sync state of the entry for date.
func (c *Controller) State(date string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[date]
}

// Edit sets one time field of the entry for date, recomputes its total and
// schedules a save after the debounce window. Edits within the window are
// coalesced; only the latest values are sent. Edits to submitted entries are
// rejected with ErrValidationRejected and leave the entry unchanged, and a
// degraded period rejects every edit with ErrDegraded.
//
// If the save fails, the whole entry reverts to its last saved values, so
// every edit of the burst is undone, not only the last field.
func (c *Controller) Edit(date string, field model.Field, value *model.Clock) (model.TimeEntry, error) {
	if d, err := timecalc.NormalizeDate(date); err == nil {
		date = d
	}

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return model.TimeEntry{}, ErrClosed
	case !c.loaded:
		c.mu.Unlock()
		return model.TimeEntry{}, ErrNoActivePeriod
	case c.period.Degraded:
		c.mu.Unlock()
		return model.TimeEntry{}, ErrDegraded
	}
	i := c.period.Find(date)
	if i < 0 {
		c.mu.Unlock()
		return model.TimeEntry{}, fmt.Errorf("%w: %s", ErrUnknownDate, date)
	}
	e := &c.period.Entries[i]
	if e.Submitted() {
		unchanged := e.Clone()
		c.mu.Unlock()
		err := fmt.Errorf("%s: %w", date, ErrValidationRejected)
		c.emit(Notice{Kind: NoticeRejected, Date: date, Err: err})
		return unchanged, err
	}

	e.Set(field, value)
	if e.Status == model.StatusUnset {
		e.Status = model.StatusActive
	}
	e.TotalTime = timecalc.EntryDuration(*e)
	c.states[date] = StateDirty
	c.scheduleLocked(date)
	out := e.Clone()
	c.mu.Unlock()
	return out, nil
}

// scheduleLocked cancels any pending save for date and starts a new debounce
// timer. c.mu must be held.
func (c *Controller) scheduleLocked(date string) {
	c.gens[date]++
	gen := c.gens[date]
	if t, ok := c.timers[date]; ok && t.Stop() {
		c.wg.Done()
	}
	c.wg.Add(1)
	c.timers[date] = time.AfterFunc(c.debounce, func() {
		defer c.wg.Done()
		_ = c.sync(c.ctx, date, gen)
	})
}

func (c *Controller) stopTimersLocked() {
	for date, t := range c.timers {
		if t.Stop() {
			c.wg.Done()
		}
		delete(c.timers, date)
	}
}

func (c *Controller) entryLock(date string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[date]
	if !ok {
		l = &sync.Mutex{}
		c.locks[date] = l
	}
	return l
}

// sync saves the entry for date if gen is still its latest edit. Requests
// for the same date are serialized, so a create always completes before the
// update that follows it.
func (c *Controller) sync(ctx context.Context, date string, gen uint64) error {
	lock := c.entryLock(date)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	if c.gens[date] != gen {
		c.mu.Unlock()
		return nil
	}
	delete(c.timers, date)
	i := c.period.Find(date)
	if i < 0 {
		c.mu.Unlock()
		return nil
	}
	epoch := c.epoch
	c.states[date] = StateSyncing
	sent := c.period.Entries[i].Clone()
	c.mu.Unlock()

	var (
		saved model.TimeEntry
		err   error
	)
	if sent.Persisted() {
		saved, err = c.backend.Update(ctx, sent)
	} else {
		saved, err = c.backend.Create(ctx, sent)
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return nil
	}
	latest := c.gens[date] == gen
	if err == nil {
		if saved.ID != 0 {
			sent.ID = saved.ID
			c.period.Entries[i].ID = saved.ID
		}
		c.confirmed[date] = sent
		if latest {
			c.states[date] = StateClean
		}
		c.mu.Unlock()
		return nil
	}

	err = fmt.Errorf("saving %s: %w: %w", date, ErrNetworkFailure, err)
	if latest {
		c.period.Entries[i] = c.confirmed[date].Clone()
		c.states[date] = StateClean
	}
	c.mu.Unlock()
	c.emit(Notice{Kind: NoticeSyncFailed, Date: date, Err: err, RolledBack: latest})
	return err
}

// Flush saves every pending edit now instead of waiting for its debounce
// window, and waits for saves already in flight. It returns the joined save
// errors of the flushed entries; those entries have been rolled back.
func (c *Controller) Flush(ctx context.Context) error {
	type job struct {
		date string
		gen  uint64
	}
	var jobs []job
	c.mu.Lock()
	for date, t := range c.timers {
		// A timer that cannot be stopped has already fired and is covered
		// by wg.
		if t.Stop() {
			c.wg.Done()
			jobs = append(jobs, job{date: date, gen: c.gens[date]})
		}
	}
	c.mu.Unlock()

	var (
		mu   sync.Mutex
		errs []error
	)
	g := new(errgroup.Group)
	g.SetLimit(c.limit)
	for _, j := range jobs {
		g.Go(func() error {
			if err := c.sync(ctx, j.date, j.gen); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	c.wg.Wait()
	return errors.Join(errs...)
}

// SubmitOptions configures Submit.
type SubmitOptions struct {
	// AllowMissing submits the period even if some entries were never saved.
	// Those entries are skipped.
	AllowMissing bool
}

// SubmitResult reports the outcome of Submit, in date order.
type SubmitResult struct {
	Submitted []string
	Failed    []string
	// MissingDates are entries without a backend id. They need confirmation
	// and are skipped when AllowMissing is set.
	MissingDates     []string
	AlreadySubmitted bool
}

// Submit marks every entry of the period as submitted. Pending edits are
// flushed first.
//
// A fully submitted period returns ErrAlreadySubmitted without any request.
// Entries without an id return ErrConfirmationRequired unless
// opts.AllowMissing is set; if that skips every open entry, Submit returns
// ErrNothingToSubmit and keeps the period. A degraded period returns
// ErrDegraded. If every request succeeds the stored start date is cleared.
// Otherwise a *SubmissionError lists the failed dates; succeeded entries stay
// submitted and failed ones stay editable.
func (c *Controller) Submit(ctx context.Context, opts SubmitOptions) (SubmitResult, error) {
	// Failed edits are rolled back and notified by Flush; submission goes on
	// with the saved values.
	_ = c.Flush(ctx)

	var result SubmitResult
	c.mu.Lock()
	if !c.loaded {
		c.mu.Unlock()
		return result, ErrNoActivePeriod
	}
	if c.period.Degraded {
		c.mu.Unlock()
		return result, ErrDegraded
	}
	start := timecalc.FormatDate(c.period.Start)
	if c.period.IsSubmitted() {
		c.mu.Unlock()
		c.emit(Notice{Kind: NoticeAlreadySubmitted, Date: start})
		result.AlreadySubmitted = true
		return result, ErrAlreadySubmitted
	}
	var targets []model.TimeEntry
	for _, e := range c.period.Entries {
		switch {
		case e.Submitted():
		case !e.Persisted():
			result.MissingDates = append(result.MissingDates, e.Date)
		default:
			targets = append(targets, e.Clone())
		}
	}
	epoch := c.epoch
	c.mu.Unlock()

	if len(result.MissingDates) > 0 && !opts.AllowMissing {
		return result, ErrConfirmationRequired
	}
	if len(targets) == 0 {
		return result, ErrNothingToSubmit
	}

	errs := make([]error, len(targets))
	g := new(errgroup.Group)
	g.SetLimit(c.limit)
	for i, e := range targets {
		g.Go(func() error {
			lock := c.entryLock(e.Date)
			lock.Lock()
			defer lock.Unlock()
			e.Status = model.StatusSubmitted
			_, errs[i] = c.backend.Update(ctx, e)
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	for i, e := range targets {
		if errs[i] != nil {
			result.Failed = append(result.Failed, e.Date)
		} else {
			result.Submitted = append(result.Submitted, e.Date)
		}
		if c.epoch != epoch {
			continue
		}
		idx := c.period.Find(e.Date)
		if idx < 0 {
			continue
		}
		if errs[i] != nil {
			c.states[e.Date] = StateDirty
			continue
		}
		c.period.Entries[idx].Status = model.StatusSubmitted
		c.confirmed[e.Date] = c.period.Entries[idx].Clone()
		c.states[e.Date] = StateClean
	}
	c.mu.Unlock()

	switch {
	case len(result.Failed) == 0:
		if err := c.store.Delete(storage.KeyStartDate); err != nil {
			return result, fmt.Errorf("clearing start date: %w", err)
		}
		c.emit(Notice{Kind: NoticeSubmitted, Date: start})
		return result, nil
	case len(result.Submitted) == 0:
		return result, &SubmissionError{FailedDates: result.Failed, Total: true}
	default:
		return result, &SubmissionError{FailedDates: result.Failed}
	}
}

// Reset drops the active period and any pending saves, and clears the stored
// start date.
func (c *Controller) Reset() error {
	c.mu.Lock()
	c.stopTimersLocked()
	c.epoch++
	c.loaded = false
	c.period = model.Period{}
	c.confirmed = map[string]model.TimeEntry{}
	c.states = map[string]State{}
	c.gens = map[string]uint64{}
	c.mu.Unlock()

	if err := c.store.Delete(storage.KeyStartDate); err != nil {
		return fmt.Errorf("clearing start date: %w", err)
	}
	return nil
}

// Close cancels pending saves and in-flight requests. Call Flush first to
// keep pending edits.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopTimersLocked()
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

func (c *Controller) emit(n Notice) {
	if c.notify != nil {
		c.notify(n)
	}
}
