// Package engine binds the world state, the scheduler and the output proxy.
//
// Everything that touches the state runs on the scheduler's dispatch
// goroutine: inbound events, connections and job executions are all entered
// into the scheduler and handled by Dispatch one at a time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/world-simulator/core"
	"github.com/signalsfoundry/world-simulator/internal/logging"
	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/internal/sim/behavior"
	"github.com/signalsfoundry/world-simulator/internal/sim/entities"
	"github.com/signalsfoundry/world-simulator/internal/sim/events"
	"github.com/signalsfoundry/world-simulator/internal/sim/proxy"
	"github.com/signalsfoundry/world-simulator/internal/sim/scheduler"
	"github.com/signalsfoundry/world-simulator/internal/sim/state"
	"github.com/signalsfoundry/world-simulator/model"
)

var (
	// ErrNoHub is returned by connection handling on an engine without a hub.
	ErrNoHub = errors.New("engine has no client hub")
	// ErrNoFactory is returned when a hero cannot be built.
	ErrNoFactory = errors.New("state has no entity factory")
	// ErrSessionExists is returned when a client id is already attached.
	ErrSessionExists = errors.New("session already attached")
)

// MetricsRecorder receives engine statistics.
type MetricsRecorder interface {
	ObserveDispatch(kind string, d time.Duration)
	IncAction(kind string)
	SetClients(n int)
}

// Scheduler items. Only the dispatch goroutine reads them.
type (
	eventItem struct{ ev events.Event }
	jobItem   struct {
		entity model.EntityID
		job    state.Job
	}
	connectItem struct {
		client proxy.Client
		reply  chan connectResult
	}
	disconnectItem struct{ id string }
	snapshotItem   struct{ reply chan []actions.Actor }
)

type connectResult struct {
	hero model.EntityID
	err  error
}

// Engine drives the simulation.
type Engine struct {
	state *state.State
	sched *scheduler.Scheduler
	out   proxy.Proxy
	hub   *proxy.Hub

	log     logging.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer

	heroCodename string
	spawnRadius  float64

	// taskJobs holds the pending job of each entity's current task. Hunger
	// drains and reactions are not tracked here and survive task changes.
	taskJobs map[model.EntityID]scheduler.Handle
}

// Option customises Engine construction.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetricsRecorder attaches an optional recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer overrides the tracer used for dispatch spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithHub enables client connections. Connected clients receive actions
// through the hub, so it should also be part of the output proxy.
func WithHub(h *proxy.Hub) Option {
	return func(e *Engine) { e.hub = h }
}

// WithSpawnRadius sets how far from the spawn point heroes appear.
func WithSpawnRadius(r float64) Option {
	return func(e *Engine) {
		if r >= 0 {
			e.spawnRadius = r
		}
	}
}

// WithHeroCodename sets the entity variant spawned for players.
func WithHeroCodename(codename string) Option {
	return func(e *Engine) {
		if codename != "" {
			e.heroCodename = codename
		}
	}
}

// New returns an engine over s that schedules on sched and sends actions to
// out.
func New(s *state.State, sched *scheduler.Scheduler, out proxy.Proxy, opts ...Option) *Engine {
	if out == nil {
		out = proxy.Func(func(actions.Action) {})
	}
	e := &Engine{
		state:        s,
		sched:        sched,
		out:          out,
		log:          logging.Noop(),
		tracer:       otel.Tracer("github.com/signalsfoundry/world-simulator/internal/sim/engine"),
		heroCodename: entities.CodenameHero,
		spawnRadius:  5,
		taskJobs:     make(map[model.EntityID]scheduler.Handle),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// State exposes the world state. It must only be touched from the dispatch
// goroutine or before Run starts.
func (e *Engine) State() *state.State { return e.state }

// Start wakes every performer and starts the hunger of every eater.
func (e *Engine) Start() {
	for _, p := range e.state.Performers() {
		e.sched.Enter(0, eventItem{ev: events.Resume{Entity: p.ID}})
	}
	for _, eater := range e.state.Eaters() {
		e.enterJob(eater.ID, behavior.NewHungerDrainJob())
	}
	e.log.Info(context.Background(), "simulation started",
		logging.Int("entities", e.state.Len()),
		logging.Int("performers", len(e.state.Performers())),
	)
}

// Run dispatches scheduled work until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	return e.sched.Run(ctx, e.Dispatch)
}

// RunDue dispatches everything due at the current clock moment.
func (e *Engine) RunDue() int {
	return e.sched.RunDue(e.Dispatch)
}

// Post delivers ev on the dispatch goroutine.
func (e *Engine) Post(ev events.Event) {
	if ev != nil {
		e.sched.Enter(0, eventItem{ev: ev})
	}
}

// Connect spawns a hero for c on the dispatch goroutine and returns its id.
// The runner must be active for Connect to return before ctx is done. When
// ctx ends first the session is disconnected again, so a late spawn is
// removed right after it happens.
func (e *Engine) Connect(ctx context.Context, c proxy.Client) (model.EntityID, error) {
	reply := make(chan connectResult, 1)
	e.sched.Enter(0, connectItem{client: c, reply: reply})
	select {
	case res := <-reply:
		return res.hero, res.err
	case <-ctx.Done():
		e.Disconnect(c.ID())
		return 0, ctx.Err()
	}
}

// Disconnect removes the session with the given id and its hero.
func (e *Engine) Disconnect(id string) {
	e.sched.Enter(0, disconnectItem{id: id})
}

// Snapshot returns every placed actor, read on the dispatch goroutine.
func (e *Engine) Snapshot(ctx context.Context) ([]actions.Actor, error) {
	reply := make(chan []actions.Actor, 1)
	e.sched.Enter(0, snapshotItem{reply: reply})
	select {
	case actors := <-reply:
		return actors, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Dispatch handles one scheduler item. It is the scheduler's dispatch
// function and must not be called concurrently.
func (e *Engine) Dispatch(h scheduler.Handle, payload any) {
	kind := payloadKind(payload)
	ctx, span := e.tracer.Start(context.Background(), "sim.dispatch",
		trace.WithAttributes(
			attribute.String("sim.kind", kind),
			attribute.Int64("sim.handle", int64(h)),
		),
	)
	start := time.Now()
	defer func() {
		span.End()
		if e.metrics != nil {
			e.metrics.ObserveDispatch(kind, time.Since(start))
		}
	}()

	switch p := payload.(type) {
	case eventItem:
		e.HandleEvent(ctx, p.ev)
	case jobItem:
		e.HandleJob(ctx, h, p.entity, p.job)
	case connectItem:
		hero, err := e.HandleConnection(ctx, p.client)
		if err != nil {
			span.RecordError(err)
		}
		if p.reply != nil {
			p.reply <- connectResult{hero: hero, err: err}
		}
	case disconnectItem:
		e.HandleDisconnection(ctx, p.id)
	case snapshotItem:
		p.reply <- e.state.Actors()
	default:
		e.log.Warn(ctx, "unknown scheduler payload", logging.String("type", fmt.Sprintf("%T", payload)))
	}
}

// HandleEvent runs the receiver's decision table and, if the task changed,
// finishes the old task, starts the new one and swaps the scheduled job.
// Events for unknown entities are ignored.
func (e *Engine) HandleEvent(ctx context.Context, ev events.Event) {
	ent := e.state.Entity(ev.Receiver())
	if ent == nil {
		e.log.Debug(ctx, "event for unknown entity",
			logging.String("event", ev.Kind()),
			logging.Uint64("entity_id", uint64(ev.Receiver())),
		)
		return
	}

	old := ent.Task
	ent.HandleEvent(ev)
	if ent.Task != old {
		e.send(old.Finish(e.state)...)
		e.send(ent.Task.Start(e.state)...)
		e.cancelTaskJob(ent.ID)
		if job := ent.Task.Job(); job != nil && e.state.Entity(ent.ID) != nil {
			e.taskJobs[ent.ID] = e.enterJob(ent.ID, job)
		}
	}

	for _, job := range ent.TakeReactions() {
		e.enterJob(ent.ID, job)
	}
}

// HandleJob executes a fired job. Jobs of vanished entities are dropped.
func (e *Engine) HandleJob(ctx context.Context, h scheduler.Handle, id model.EntityID, job state.Job) {
	isTask := e.taskJobs[id] == h
	ent := e.state.Entity(id)
	if ent == nil {
		if isTask {
			delete(e.taskJobs, id)
		}
		return
	}

	res := job.Execute(ent, e.state)
	e.send(res.Actions...)

	switch r := res.Repeat.(type) {
	case state.RepeatAfter:
		if e.state.Entity(id) != nil {
			e.sched.Reschedule(h, time.Duration(r), jobItem{entity: id, job: job})
			return
		}
	case state.RepeatWith:
		if isTask {
			delete(e.taskJobs, id)
		}
		if r.Event != nil {
			e.HandleEvent(ctx, r.Event)
		}
		return
	}
	if isTask && e.taskJobs[id] == h {
		delete(e.taskJobs, id)
	}
}

// HandleConnection spawns a hero for c. The client first receives its
// configuration and every actor, then joins the broadcast; everybody else
// learns about the new hero.
func (e *Engine) HandleConnection(ctx context.Context, c proxy.Client) (model.EntityID, error) {
	if e.hub == nil {
		return 0, ErrNoHub
	}
	if _, taken := e.hub.Hero(c.ID()); taken {
		return 0, fmt.Errorf("%w: %s", ErrSessionExists, c.ID())
	}
	factory := e.state.Factory()
	if factory == nil {
		return 0, ErrNoFactory
	}

	at := entities.RandomPointNear(e.state, entities.SpawnPoint, e.spawnRadius)
	hero, err := factory.Create(e.heroCodename, &at)
	if err != nil {
		return 0, fmt.Errorf("spawn hero: %w", err)
	}
	id, err := e.state.AddEntity(hero)
	if err != nil {
		return 0, fmt.Errorf("spawn hero: %w", err)
	}

	log := e.log.With(
		logging.String("connection_id", c.ID()),
		logging.Uint64("hero_id", uint64(id)),
	)
	cfg := actions.Configuration{HeroID: id}
	if p, ok := e.state.Elevation().(interface{ Params() core.TerrainParams }); ok {
		cfg.Terrain = p.Params()
	}
	for _, a := range []actions.Action{cfg, actions.CreateActors{Actors: e.state.Actors()}} {
		if err := c.Send(a); err != nil {
			log.Warn(ctx, "initial send failed", logging.Err(err))
		}
		if e.metrics != nil {
			e.metrics.IncAction(a.Kind())
		}
	}

	if actor, ok := hero.Actor(); ok {
		e.send(actions.CreateActors{Actors: []actions.Actor{actor}})
	}
	e.hub.Attach(c, id)
	if e.metrics != nil {
		e.metrics.SetClients(e.hub.Len())
	}
	if hero.Features.Eater != nil {
		e.enterJob(id, behavior.NewHungerDrainJob())
	}
	if hero.Features.Performer != nil {
		e.HandleEvent(ctx, events.Resume{Entity: id})
	}

	log.Info(ctx, "hero joined")
	return id, nil
}

// HandleDisconnection detaches the session and removes its hero together
// with everything it carried.
func (e *Engine) HandleDisconnection(ctx context.Context, id string) {
	if e.hub == nil {
		return
	}
	hero, ok := e.hub.Detach(id)
	if !ok {
		return
	}
	if e.metrics != nil {
		e.metrics.SetClients(e.hub.Len())
	}

	e.cancelTaskJob(hero)
	if ent := e.state.Entity(hero); ent != nil {
		placed := ent.Placed()
		e.state.DeleteEntity(hero)
		if placed {
			e.send(actions.DeleteActors{IDs: []model.EntityID{hero}})
		}
	}
	e.log.Info(ctx, "hero left",
		logging.String("connection_id", id),
		logging.Uint64("hero_id", uint64(hero)),
	)
}

func (e *Engine) enterJob(id model.EntityID, job state.Job) scheduler.Handle {
	return e.sched.Enter(job.StartDelay(), jobItem{entity: id, job: job})
}

func (e *Engine) cancelTaskJob(id model.EntityID) {
	if h, ok := e.taskJobs[id]; ok {
		e.sched.Cancel(h)
		delete(e.taskJobs, id)
	}
}

func (e *Engine) send(list ...actions.Action) {
	for _, a := range list {
		if a == nil {
			continue
		}
		e.out.SendAction(a)
		if e.metrics != nil {
			e.metrics.IncAction(a.Kind())
		}
	}
}

func payloadKind(payload any) string {
	switch p := payload.(type) {
	case eventItem:
		if p.ev != nil {
			return p.ev.Kind()
		}
		return "event"
	case jobItem:
		return "job"
	case connectItem:
		return "connect"
	case disconnectItem:
		return "disconnect"
	case snapshotItem:
		return "snapshot"
	default:
		return "unknown"
	}
}
