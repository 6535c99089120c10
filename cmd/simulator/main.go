// Command simulator runs a world headlessly in accelerated time and prints
// a summary of the actions it produced.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/signalsfoundry/world-simulator/internal/config"
	"github.com/signalsfoundry/world-simulator/internal/logging"
	"github.com/signalsfoundry/world-simulator/internal/sim/actions"
	"github.com/signalsfoundry/world-simulator/internal/sim/events"
	"github.com/signalsfoundry/world-simulator/internal/sim/proxy"
	"github.com/signalsfoundry/world-simulator/internal/world"
	"github.com/signalsfoundry/world-simulator/timectrl"
)

func main() {
	configPath := flag.String("config", "", "path to world configuration YAML")
	duration := flag.Duration("duration", 10*time.Minute, "simulated time to run")
	heroes := flag.Int("heroes", 2, "number of scripted heroes to connect")
	journalDir := flag.String("journal", "", "directory for the action journal (disabled when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(logging.Config{Level: cfg.Log.LevelOrEnv(), Format: cfg.Log.FormatOrEnv(), Output: os.Stderr})

	summary, err := simulate(context.Background(), cfg, options{
		Duration:   *duration,
		Heroes:     *heroes,
		JournalDir: *journalDir,
		Start:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(1)
	}
	summary.Print(os.Stdout)
}

type options struct {
	Duration   time.Duration
	Heroes     int
	JournalDir string
	Start      time.Time
}

// summary is what a headless run reports.
type summary struct {
	Seed       uint64
	Entities   int
	Dispatched int
	SimTime    time.Duration
	Actions    map[string]int
}

func (s summary) Total() int {
	n := 0
	for _, c := range s.Actions {
		n += c
	}
	return n
}

func (s summary) Print(w io.Writer) {
	fmt.Fprintf(w, "seed=%d entities=%d dispatched=%d simulated=%s actions=%d\n",
		s.Seed, s.Entities, s.Dispatched, s.SimTime, s.Total())
	kinds := make([]string, 0, len(s.Actions))
	for k := range s.Actions {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-18s %d\n", k, s.Actions[k])
	}
}

// counter tallies actions by kind.
type counter struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *counter) SendAction(a actions.Action) {
	c.mu.Lock()
	c.counts[a.Kind()]++
	c.mu.Unlock()
}

// bot is a connected hero whose actions go nowhere.
type bot struct{ id string }

func (b bot) ID() string              { return b.id }
func (bot) Send(actions.Action) error { return nil }

// simulate builds the configured world on a manual clock, connects scripted
// heroes and advances time from one scheduled moment to the next until
// opts.Duration has elapsed or nothing is left to do.
func simulate(ctx context.Context, cfg *config.Config, opts options, log logging.Logger) (summary, error) {
	clock := timectrl.NewManualClock(opts.Start)
	counts := &counter{counts: make(map[string]int)}

	var out proxy.Proxy = counts
	if opts.JournalDir != "" {
		journal := proxy.NewJournal(opts.JournalDir, cfg.Journal.Prefix, clock, log)
		defer func() {
			if err := journal.Close(); err != nil {
				log.Warn(ctx, "journal close failed", logging.Err(err))
			}
		}()
		out = proxy.Tee(counts, journal)
	}

	w, err := world.Build(cfg, world.Deps{Clock: clock, Log: log, Output: out})
	if err != nil {
		return summary{}, err
	}
	w.Engine.Start()

	rng := rand.New(rand.NewPCG(w.Seed, uint64(opts.Heroes)))
	for i := 0; i < opts.Heroes; i++ {
		hero, err := w.Engine.HandleConnection(ctx, bot{id: fmt.Sprintf("bot-%d", i)})
		if err != nil {
			return summary{}, fmt.Errorf("connect bot %d: %w", i, err)
		}
		w.Engine.Post(events.StartMoving{Entity: hero, Bearing: rng.Float64() * 2 * math.Pi})
	}

	end := opts.Start.Add(opts.Duration)
	dispatched := w.Engine.RunDue()
	for {
		if err := ctx.Err(); err != nil {
			return summary{}, err
		}
		next, ok := w.Scheduler.NextMoment()
		if !ok || next.After(end) {
			break
		}
		clock.Set(next)
		dispatched += w.Engine.RunDue()
	}
	if clock.Now().Before(end) {
		clock.Set(end)
	}

	log.Info(ctx, "simulation finished",
		logging.Int("dispatched", dispatched),
		logging.String("simulated", opts.Duration.String()),
	)

	counts.mu.Lock()
	defer counts.mu.Unlock()
	actionCounts := make(map[string]int, len(counts.counts))
	for k, v := range counts.counts {
		actionCounts[k] = v
	}
	return summary{
		Seed:       w.Seed,
		Entities:   w.State.Len(),
		Dispatched: dispatched,
		SimTime:    clock.Now().Sub(opts.Start),
		Actions:    actionCounts,
	}, nil
}
