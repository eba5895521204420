// Package feedproc coordinates the whale-transaction feed view: it owns the
// visible list, the pagination cursor and the active filter predicate, keeps
// them consistent across paginated fetches and live-pushed events, and exposes
// the state to the rendering surface.
//
// All mutable state is guarded by one mutex and every handler reads the
// predicate at the moment of use, never from a copy captured at subscription
// time. Fetches complete asynchronously and carry a generation token; a
// response that lost the race against a newer predicate or a newer fetch is
// discarded instead of clobbering fresher state.
package feedproc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/whalefeed/whalefeed/internal/feed"
	"github.com/whalefeed/whalefeed/internal/filter"
	"github.com/whalefeed/whalefeed/internal/filterregistry"
	"github.com/whalefeed/whalefeed/internal/livematch"
	"github.com/whalefeed/whalefeed/internal/pkg/logger"
	"github.com/whalefeed/whalefeed/internal/pkg/x/chflow"
	"github.com/whalefeed/whalefeed/internal/txquery"
)

const (
	defaultPageSize = 20
	defaultDebounce = 100 * time.Millisecond
)

// ErrServiceAlreadyStarted is returned if Start is called more than once.
var ErrServiceAlreadyStarted = errors.New("service already started")

// ViewState is the snapshot handed to the rendering surface.
type ViewState struct {
	// Items is the visible list of view transactions, newest first.
	Items []feed.ViewTransaction

	// Page is the current 1-based pagination cursor.
	Page int

	// Loading reports a fresh fetch in flight; LoadingMore a page append.
	Loading     bool
	LoadingMore bool

	// HasMore reports whether further pages exist under the predicate.
	HasMore bool

	// NewCount counts live arrivals not merged into the visible list since
	// the last predicate change or jump; HasNew is its boolean companion.
	NewCount int
	HasNew   bool
}

// Service is the feed view lifecycle and interaction entrypoint.
type Service interface {
	// Start loads the persisted predicate, subscribes to the live feed and
	// issues the initial fetch. Returns ErrServiceAlreadyStarted on a
	// second call. Call Close to shut down all background routines.
	Start(ctx context.Context) error

	// Close unsubscribes from the live feed and stops pending timers and
	// fetches. Safe to call even if the service was never started.
	Close()

	// SetPredicate validates and persists the predicate, resets the cursor
	// to page 1, clears the visible list, re-evaluates the pending buffer
	// and schedules a debounced refetch.
	SetPredicate(ctx context.Context, pred filter.Predicate) error

	// CurrentPredicate returns the active predicate.
	CurrentPredicate() filter.Predicate

	// LoadNextPage advances the cursor and appends the next page. It is a
	// no-op while a fetch is in flight or when no more pages exist.
	LoadNextPage(ctx context.Context) error

	// JumpToLatest clears the predicate to defaults, drops the pending
	// buffer, resets the cursor and counters, and refetches immediately.
	JumpToLatest(ctx context.Context) error

	// ClearFresh removes the transient "new" marker from the view with the
	// given stable id.
	ClearFresh(viewID string)

	// Snapshot returns the current view state.
	Snapshot() ViewState
}

type closeFunc func()

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc closeFunc
	runCtx    context.Context

	pageSize int
	debounce time.Duration

	pred        filter.Predicate
	page        int
	items       []feed.ViewTransaction
	loading     bool
	loadingMore bool
	hasMore     bool
	newCount    int
	hasNew      bool

	fetchGen      uint64
	debounceTimer *time.Timer

	fetcher  txquery.Service
	matcher  *livematch.Matcher
	livefeed LiveFeed
	filters  filterregistry.Service
}

var _ Service = (*service)(nil)

type config struct {
	pageSize int
	debounce time.Duration
	filters  filterregistry.Service
}

// Option configures the feedproc service.
type Option func(*config)

// WithPageSize sets the fixed page size. Default: 20.
func WithPageSize(n int) Option {
	return func(c *config) {
		c.pageSize = n
	}
}

// WithDebounce sets the delay that absorbs rapid sequential predicate edits
// before refetching. Default: 100ms.
func WithDebounce(d time.Duration) Option {
	return func(c *config) {
		c.debounce = d
	}
}

// WithFilterRegistry sets the predicate persistence service. Without it the
// predicate is process-local and starts at the default.
func WithFilterRegistry(fr filterregistry.Service) Option {
	return func(c *config) {
		c.filters = fr
	}
}

// New creates the feedproc service from its collaborators.
func New(fetcher txquery.Service, matcher *livematch.Matcher, livefeed LiveFeed, opts ...Option) *service {
	cfg := config{
		pageSize: defaultPageSize,
		debounce: defaultDebounce,
		filters:  filterregistry.New(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		pageSize: cfg.pageSize,
		debounce: cfg.debounce,
		pred:     filter.Default(),
		page:     1,
		fetcher:  fetcher,
		matcher:  matcher,
		livefeed: livefeed,
		filters:  cfg.filters,
	}
}

// Start implements Service.
func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.runCtx = ctx

	s.pred = s.filters.Current(ctx)
	s.page = 1

	events, err := s.livefeed.Subscribe(ctx)
	if err != nil {
		cancel()
		return err
	}

	go s.consumeLiveEvents(ctx, events)
	s.fetchLocked(1, false)

	s.closeFunc = func() {
		cancel()
		if s.debounceTimer != nil {
			s.debounceTimer.Stop()
		}
		s.livefeed.Close()
	}
	s.isStarted = true
	return nil
}

// Close implements Service.
func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}

	s.closeFunc = nil
	s.isStarted = false
}

// consumeLiveEvents drains the live feed channel until it closes or the
// context is canceled. Events are processed strictly in arrival order.
func (s *service) consumeLiveEvents(ctx context.Context, events <-chan feed.Transaction) {
	for {
		tx, ok := chflow.Receive(ctx, events)
		if !ok {
			return
		}
		s.handleLiveEvent(ctx, tx)
	}
}

// handleLiveEvent routes one live transaction through the matcher and applies
// the outcome. The predicate and page are read under the lock at the moment
// of use.
func (s *service) handleLiveEvent(ctx context.Context, tx feed.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.matcher.OnEvent(tx, s.pred, s.page)
	if len(out.Merge) > 0 {
		s.prependLocked(out.Merge)
	}
	if out.NewArrivals > 0 {
		s.newCount += out.NewArrivals
		s.hasNew = true
	}

	logger.Debug(ctx, "live transaction processed",
		"tx.signature", tx.Signature,
		"merged", len(out.Merge),
		"new.count", s.newCount,
	)
}

// SetPredicate implements Service.
func (s *service) SetPredicate(ctx context.Context, pred filter.Predicate) error {
	if err := s.filters.Apply(ctx, pred); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pred = pred
	s.page = 1
	s.items = nil
	s.hasMore = false
	s.fetchGen++ // invalidate any in-flight fetch for the old predicate

	reeval := s.matcher.OnPredicateChange(pred, s.page)
	s.newCount = reeval.NewAvailable
	s.hasNew = reeval.NewAvailable > 0
	if len(reeval.Merge) > 0 {
		s.prependLocked(reeval.Merge)
	}

	s.scheduleRefetchLocked()
	return nil
}

// CurrentPredicate implements Service.
func (s *service) CurrentPredicate() filter.Predicate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pred
}

// scheduleRefetchLocked (re)arms the debounce timer so that an edit burst
// results in at most one fetch after it settles.
func (s *service) scheduleRefetchLocked() {
	if s.runCtx == nil {
		return // not started yet; Start will fetch
	}

	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}

	s.debounceTimer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if !s.isStarted {
			return
		}
		s.fetchLocked(1, false)
	})
}

// LoadNextPage implements Service.
func (s *service) LoadNextPage(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isStarted || s.loading || s.loadingMore || !s.hasMore {
		return nil
	}

	s.page++
	s.fetchLocked(s.page, true)
	return nil
}

// JumpToLatest implements Service.
func (s *service) JumpToLatest(ctx context.Context) error {
	if err := s.filters.Reset(ctx); err != nil {
		logger.Warn(ctx, "failed to clear persisted filters", "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pred = filter.Default()
	s.page = 1
	s.items = nil
	s.hasMore = false
	s.newCount = 0
	s.hasNew = false
	s.fetchGen++
	s.matcher.Reset()

	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	if s.isStarted {
		s.fetchLocked(1, false)
	}
	return nil
}

// ClearFresh implements Service.
func (s *service) ClearFresh(viewID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == viewID {
			s.items[i].Fresh = false
		}
	}
}

// Snapshot implements Service.
func (s *service) Snapshot() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]feed.ViewTransaction, len(s.items))
	copy(items, s.items)

	return ViewState{
		Items:       items,
		Page:        s.page,
		Loading:     s.loading,
		LoadingMore: s.loadingMore,
		HasMore:     s.hasMore,
		NewCount:    s.newCount,
		HasNew:      s.hasNew,
	}
}

// prependLocked puts freshly merged views at the head of the visible list and
// truncates it to the page size, dropping the oldest visible items.
func (s *service) prependLocked(views []feed.ViewTransaction) {
	s.items = append(views, s.items...)
	if len(s.items) > s.pageSize {
		s.items = s.items[:s.pageSize]
	}
}

// fetchLocked dispatches an asynchronous page fetch under the current
// predicate. The caller must hold the lock. The fetch carries a generation
// token; by the time it completes, a newer predicate or fetch may have
// superseded it, in which case its result is dropped.
func (s *service) fetchLocked(page int, loadMore bool) {
	s.fetchGen++
	gen := s.fetchGen

	if loadMore {
		s.loadingMore = true
	} else {
		s.loading = true
	}

	var (
		ctx      = s.runCtx
		pred     = s.pred
		pageSize = s.pageSize
	)

	go func() {
		result, err := s.fetcher.FetchPage(ctx, page, pageSize, pred)

		s.mu.Lock()
		defer s.mu.Unlock()

		if gen != s.fetchGen {
			logger.Debug(ctx, "discarding stale fetch response", "page", page)
			return
		}

		s.loading = false
		s.loadingMore = false

		if err != nil {
			logger.Error(ctx, "transaction fetch failed",
				"page", page,
				"load_more", loadMore,
				"error", err,
			)
			if !loadMore {
				s.items = nil
			}
			s.hasMore = false
			return
		}

		if loadMore {
			s.items = append(s.items, result.Items...)
		} else {
			s.items = result.Items
		}
		s.hasMore = result.HasMore
	}()
}
