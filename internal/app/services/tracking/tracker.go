// Package tracking sends fire-and-forget interaction beacons. Delivery is
// at-most-once: no retry, no queue, nothing persisted. A beacon never blocks
// or fails the action it is attached to.
package tracking

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/R3E-Network/storefront/internal/app/domain/tracking"
	"github.com/R3E-Network/storefront/internal/app/metrics"
	"github.com/R3E-Network/storefront/internal/app/system"
	"github.com/R3E-Network/storefront/pkg/logger"
)

// Poster is the subset of the HTTP client the tracker needs.
type Poster interface {
	Post(ctx context.Context, path string, query url.Values, body any, token string, out any) error
}

// Source supplies the identity attached to every event at the moment it is
// tracked.
type Source interface {
	SessionID() string
	UserID() string
	PagePath() string
}

// Config bounds the tracker.
type Config struct {
	Enabled     bool
	MaxInFlight int
	Timeout     time.Duration
}

// Outcome labels.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
	OutcomeInvalid = "invalid"
)

var _ system.Service = (*Tracker)(nil)

// Tracker dispatches beacons on a bounded set of goroutines.
type Tracker struct {
	poster  Poster
	source  Source
	log     *logger.Logger
	now     func() time.Time
	enabled bool
	timeout time.Duration
	slots   chan struct{}

	baseCtx context.Context
	abort   context.CancelFunc

	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool
}

// New constructs a tracker.
func New(poster Poster, source Source, cfg Config, log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewDefault("tracking")
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		poster:  poster,
		source:  source,
		log:     log,
		now:     time.Now,
		enabled: cfg.Enabled,
		timeout: cfg.Timeout,
		slots:   make(chan struct{}, cfg.MaxInFlight),
		baseCtx: ctx,
		abort:   cancel,
	}
}

func (t *Tracker) Name() string { return "tracking" }

// Start is a no-op; beacons are dispatched on demand.
func (t *Tracker) Start(context.Context) error { return nil }

// Stop rejects further events and waits for in-flight beacons until ctx
// expires, after which they are aborted.
func (t *Tracker) Stop(ctx context.Context) error {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		t.wg.Wait()
	}()

	select {
	case <-done:
		t.abort()
		return nil
	case <-ctx.Done():
		t.abort()
		<-done
		return ctx.Err()
	}
}

// Track records an event. It returns whether the beacon was dispatched;
// callers are free to ignore the result.
func (t *Tracker) Track(eventType tracking.EventType, properties map[string]any) bool {
	if !t.enabled {
		return false
	}
	if !eventType.Known() {
		metrics.RecordTrackingEvent(string(eventType), OutcomeInvalid)
		t.log.WithField("event_type", eventType).Debug("ignoring unknown event type")
		return false
	}

	event := t.build(eventType, properties)

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		metrics.RecordTrackingEvent(string(eventType), OutcomeDropped)
		return false
	}
	select {
	case t.slots <- struct{}{}:
	default:
		t.mu.Unlock()
		metrics.RecordTrackingEvent(string(eventType), OutcomeDropped)
		t.log.WithField("event_type", eventType).Debug("tracking pool saturated; event dropped")
		return false
	}
	t.wg.Add(1)
	t.mu.Unlock()

	go t.send(event)
	return true
}

func (t *Tracker) build(eventType tracking.EventType, properties map[string]any) tracking.Event {
	props := make(map[string]any, len(properties))
	for k, v := range properties {
		props[k] = v
	}
	event := tracking.Event{
		EventType:  eventType,
		Timestamp:  t.now().UTC(),
		Properties: props,
	}
	if t.source != nil {
		event.SessionID = t.source.SessionID()
		event.UserID = t.source.UserID()
		event.PageURL = t.source.PagePath()
	}
	if event.PageURL == "" {
		event.PageURL = "/"
	}
	return event
}

func (t *Tracker) send(event tracking.Event) {
	defer t.wg.Done()
	defer func() { <-t.slots }()

	ctx, cancel := context.WithTimeout(t.baseCtx, t.timeout)
	defer cancel()

	if err := t.poster.Post(ctx, "/api/tracking/event", nil, event, "", nil); err != nil {
		metrics.RecordTrackingEvent(string(event.EventType), OutcomeFailed)
		t.log.WithError(err).WithField("event_type", event.EventType).Debug("tracking beacon failed")
		return
	}
	metrics.RecordTrackingEvent(string(event.EventType), OutcomeSent)
}
