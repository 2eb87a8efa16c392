package alerter

import (
	"context"
	"net/url"

	"github.com/jonboulle/clockwork"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/temblor/internal/intensity"
	"github.com/linnemanlabs/temblor/internal/quake"
	"github.com/linnemanlabs/temblor/internal/targets"
)

// Notification channels.
const (
	ChannelSMS  = "sms"
	ChannelCall = "call"
)

// Tick outcomes, used for logging and metrics labels.
const (
	OutcomeAlerted         = "alerted"
	OutcomeNoMatch         = "no_match"
	OutcomeDuplicate       = "duplicate"
	OutcomeBelowThreshold  = "below_threshold"
	OutcomeEmptyFeed       = "empty_feed"
	OutcomeMalformedEvent  = "malformed_event"
	OutcomeFeedError       = "feed_error"
	OutcomeEnrichmentError = "enrichment_error"
	OutcomeStoreError      = "store_error"
	OutcomeTargetsError    = "targets_error"
	OutcomeNoTargets       = "no_targets"
	OutcomeDispatchFailed  = "dispatch_failed"
)

// FeedClient fetches the latest observed event list.
type FeedClient interface {
	Latest(ctx context.Context) ([]quake.Event, error)
}

// Enricher augments a feed event with per-locality intensity predictions.
type Enricher interface {
	Predict(ctx context.Context, eventID string, th intensity.Thresholds) (*quake.Enriched, error)
}

// Dispatcher sends one rendered message to one recipient. No retries; a
// failed send is final for the tick.
type Dispatcher interface {
	SendSMS(ctx context.Context, to, body string) error
	SendCall(ctx context.Context, to, scriptURL string) error
}

// Config carries the alert decision thresholds and rendering limits.
type Config struct {
	MinMagnitude   float64
	MinIntensity   int
	MaxLocalities  int
	Channel        string // ChannelSMS or ChannelCall
	MessageMaxLen  int
	VoiceScriptURL string
}

// EngineHooks receives engine observations; wired to Prometheus by Metrics.
// Nil funcs are skipped.
type EngineHooks struct {
	OnTick     func(outcome string, duration float64, selected int)
	OnDispatch func(channel string, ok bool)
	OnMarker   func(seen, alerted *float64)
}

// Engine runs the per-tick alert decision pipeline. It is stateless across
// ticks except for what it reads from and writes to the Store.
type Engine struct {
	feed     FeedClient
	enricher Enricher
	registry targets.Registry
	sender   Dispatcher
	store    Store
	cfg      Config
	logger   log.Logger
	hooks    EngineHooks
	clock    clockwork.Clock
}

// NewEngine creates an engine. A nil clock defaults to the real clock.
func NewEngine(feed FeedClient, enricher Enricher, registry targets.Registry, sender Dispatcher, store Store, cfg Config, logger log.Logger, hooks EngineHooks, clock clockwork.Clock) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		feed:     feed,
		enricher: enricher,
		registry: registry,
		sender:   sender,
		store:    store,
		cfg:      cfg,
		logger:   logger,
		hooks:    hooks,
		clock:    clock,
	}
}

// Run executes one tick. It never returns an error: this is a headless
// background job, every abort means "try again next tick" and is signalled
// through logs and metrics only. The only persistent effects are the two
// marker writes, both monotonic within a tick.
func (e *Engine) Run(ctx context.Context) {
	start := e.clock.Now()
	L := e.logger.With("run_id", ulid.Make().String())

	outcome, selected := e.tick(ctx, L)

	dur := e.clock.Since(start).Seconds()
	if e.hooks.OnTick != nil {
		e.hooks.OnTick(outcome, dur, selected)
	}
	L.Info(ctx, "tick finished", "outcome", outcome, "selected", selected, "duration", dur)
}

func (e *Engine) tick(ctx context.Context, L log.Logger) (outcome string, selected int) {
	// 1. fetch the latest feed snapshot
	events, err := e.feed.Latest(ctx)
	if err != nil {
		L.Error(ctx, err, "feed fetch failed")
		return OutcomeFeedError, 0
	}
	if len(events) == 0 {
		return OutcomeEmptyFeed, 0
	}

	// 2. the first element is the latest event
	latest := events[0]
	if !latest.Actionable() {
		L.Warn(ctx, "latest event is not actionable", "event_id", latest.ID)
		return OutcomeMalformedEvent, 0
	}
	L = L.With("event_id", latest.ID, "magnitude", latest.Magnitude)

	// 3. advance the seen marker on any id change. Pure observability: a
	// failed write is logged but never blocks the alert decision.
	seen, haveSeen, err := e.store.GetSeen(ctx)
	if err != nil {
		L.Error(ctx, err, "read seen marker failed")
		return OutcomeStoreError, 0
	}
	if !haveSeen || seen.EventID != latest.ID {
		m := SeenMarker{EventID: latest.ID, Magnitude: latest.Magnitude, At: e.clock.Now()}
		if err := e.store.PutSeen(ctx, m); err != nil {
			L.Error(ctx, err, "write seen marker failed")
		} else if e.hooks.OnMarker != nil {
			e.hooks.OnMarker(&m.Magnitude, nil)
		}
	}

	// 4. dedup: one alert pass per feed id, ever
	alerted, haveAlerted, err := e.store.GetAlerted(ctx)
	if err != nil {
		L.Error(ctx, err, "read alerted marker failed")
		return OutcomeStoreError, 0
	}
	if haveAlerted && alerted.EventID == latest.ID {
		return OutcomeDuplicate, 0
	}

	// 5. magnitude gate. Does not consume the alerted slot: a later poll may
	// surface a bigger event under a different id and must not be pre-empted.
	if latest.Magnitude < e.cfg.MinMagnitude {
		return OutcomeBelowThreshold, 0
	}

	// 6. enrichment. Failure here must not blacklist the id, so no marker
	// write on any error path.
	enriched, err := e.enricher.Predict(ctx, latest.ID, intensity.Thresholds{
		MinMagnitude:  e.cfg.MinMagnitude,
		MinIntensity:  e.cfg.MinIntensity,
		TopLocalities: e.cfg.MaxLocalities,
	})
	if err != nil {
		L.Error(ctx, err, "enrichment fetch failed")
		return OutcomeEnrichmentError, 0
	}

	// 7. the enrichment's magnitude and id are authoritative for the message,
	// but the feed id stays the dedup key
	effMag := enriched.Magnitude
	if effMag == 0 {
		effMag = latest.Magnitude
	}
	payloadID := enriched.EventID
	if payloadID == "" {
		payloadID = latest.ID
	}

	// 8. load subscribers. An empty list is indistinguishable from a
	// mis-provisioned registry, so the event stays pending for later ticks.
	list, err := e.registry.List(ctx)
	if err != nil {
		L.Error(ctx, err, "target registry read failed")
		return OutcomeTargetsError, 0
	}
	if len(list) == 0 {
		L.Warn(ctx, "target registry is empty, leaving event pending")
		return OutcomeNoTargets, 0
	}

	// 9. filter
	var matched []targets.Target
	for _, t := range list {
		if t.Matches(effMag, enriched.Localities) {
			matched = append(matched, t)
		}
	}

	// 10. an event that enriched fine but matches nobody is fully processed
	if len(matched) == 0 {
		e.commitAlerted(ctx, L, latest.ID, payloadID, effMag)
		return OutcomeNoMatch, 0
	}

	// 11. render once, dispatch per target. Failures are per-target and never
	// abort the loop; partial delivery is expected.
	body := RenderMessage(enriched, effMag, e.cfg.MaxLocalities, e.cfg.MessageMaxLen)
	sent := 0
	for _, t := range matched {
		err := e.dispatch(ctx, t.Phone, body)
		if e.hooks.OnDispatch != nil {
			e.hooks.OnDispatch(e.cfg.Channel, err == nil)
		}
		if err != nil {
			L.Error(ctx, err, "dispatch failed", "to", t.Phone, "channel", e.cfg.Channel)
			continue
		}
		L.Info(ctx, "dispatched", "to", t.Phone, "channel", e.cfg.Channel)
		sent++
	}

	// 12. commit only on at least one delivery; total failure reads as a
	// transient carrier outage and leaves the event eligible for retry
	if sent == 0 {
		L.Warn(ctx, "all dispatches failed, leaving event pending", "targets", len(matched))
		return OutcomeDispatchFailed, len(matched)
	}
	e.commitAlerted(ctx, L, latest.ID, payloadID, effMag)
	L.Info(ctx, "alert pass complete", "sent", sent, "failed", len(matched)-sent)
	return OutcomeAlerted, len(matched)
}

func (e *Engine) dispatch(ctx context.Context, to, body string) error {
	if e.cfg.Channel == ChannelCall {
		// the script endpoint speaks whatever text it is handed
		scriptURL := e.cfg.VoiceScriptURL + "?text=" + url.QueryEscape(body)
		return e.sender.SendCall(ctx, to, scriptURL)
	}
	return e.sender.SendSMS(ctx, to, body)
}

func (e *Engine) commitAlerted(ctx context.Context, L log.Logger, eventID, payloadID string, magnitude float64) {
	m := AlertedMarker{EventID: eventID, PayloadID: payloadID, Magnitude: magnitude, At: e.clock.Now()}
	if err := e.store.PutAlerted(ctx, m); err != nil {
		// the next tick will redo the pass; dispatch is not transactional with
		// the marker, so this can double-notify after a store outage
		L.Error(ctx, err, "write alerted marker failed")
		return
	}
	if e.hooks.OnMarker != nil {
		e.hooks.OnMarker(nil, &m.Magnitude)
	}
}
