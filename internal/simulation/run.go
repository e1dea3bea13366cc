package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/randosim/internal/game"
	"github.com/nvandessel/randosim/internal/models"
	"github.com/nvandessel/randosim/internal/policy"
	"github.com/nvandessel/randosim/internal/tracker"
)

// Phase is the lifecycle state of a run.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhasePlaying
	PhaseTerminated
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhasePlaying:
		return "playing"
	case PhaseTerminated:
		return "terminated"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// RunConfig is everything one run needs. Game, Policy and RNG are required.
type RunConfig struct {
	Game      *game.Game
	Choices   models.Choices
	EndStates []string
	Policy    policy.Policy
	Reports   []tracker.Spec
	RNG       *rand.Rand
	Observer  Observer

	// File, Scenario and Index identify the run in emitted events.
	File     string
	Scenario string
	Index    int
}

// RunReport is the outcome of a terminated run.
type RunReport struct {
	// Choices lists completed milestones in play order.
	Choices     []string `json:"choices" yaml:"choices"`
	ChoiceCount int      `json:"choice_count" yaml:"choice_count"`
	// Found lists acquired items in acquisition order.
	Found []string `json:"found" yaml:"found"`
	// Categories maps each report label to its categories in
	// first-satisfaction order.
	Categories map[string][]string `json:"categories" yaml:"categories"`
	// Problems lists category conditions that could not be evaluated.
	Problems []string `json:"problems,omitempty" yaml:"problems,omitempty"`
}

// Run is a single playthrough. It is not safe for concurrent use.
type Run struct {
	cfg      RunConfig
	state    *game.State
	trackers []*tracker.Tracker
	phase    Phase
	step     int
	problems []string
}

// NewRun creates a run in the initializing phase.
func NewRun(cfg RunConfig) *Run {
	r := &Run{cfg: cfg, state: game.NewState()}
	for _, spec := range cfg.Reports {
		r.trackers = append(r.trackers, tracker.New(spec))
	}
	return r
}

// Phase returns the current lifecycle phase.
func (r *Run) Phase() Phase { return r.phase }

// State returns a copy of the run state.
func (r *Run) State() *game.State { return r.state.Clone() }

// Play drives the run to an end state. A run that cannot make progress, or
// whose requirements cannot be evaluated, ends in PhaseFailed and returns the
// error; its partial report is still returned.
func (r *Run) Play(ctx context.Context) (RunReport, error) {
	if r.phase != PhaseInitializing {
		return r.report(), fmt.Errorf("run already %s", r.phase)
	}
	r.emit(Event{Kind: EventRunStart})

	var seeded []string
	for _, slot := range r.cfg.Game.Initial {
		if item, ok := r.cfg.Choices.Get(slot); ok && r.state.Found.Add(item) {
			seeded = append(seeded, item)
		}
	}
	if err := r.close(seeded); err != nil {
		return r.fail(err)
	}

	r.phase = PhasePlaying
	for !r.ended() {
		if err := ctx.Err(); err != nil {
			return r.fail(err)
		}
		r.step++
		token, err := r.cfg.Policy.Choose(r.state.Available(), r.cfg.RNG)
		if err != nil {
			return r.fail(fmt.Errorf("step %d: %w", r.step, err))
		}
		if err := r.state.Unlock(token); err != nil {
			return r.fail(fmt.Errorf("step %d: %w", r.step, err))
		}
		r.emit(Event{Kind: EventChoice, Names: []string{token}})
		for _, t := range r.trackers {
			added, problems := t.OnChoice(token)
			r.record(t.Label(), added, problems)
		}
		if err := r.close(nil); err != nil {
			return r.fail(err)
		}
	}

	r.phase = PhaseTerminated
	rep := r.report()
	r.emit(Event{Kind: EventRunEnd, Names: rep.Choices})
	return rep, nil
}

// close runs the closure resolver and feeds newly found items, preceded by
// extra, to every tracker.
func (r *Run) close(extra []string) error {
	p, err := game.Close(r.cfg.Game, r.cfg.Choices, r.state)
	if err != nil {
		return err
	}
	found := append(extra, p.Found...)
	if len(found) > 0 {
		r.emit(Event{Kind: EventFound, Names: found})
	}
	if len(p.Eligible) > 0 {
		r.emit(Event{Kind: EventEligible, Names: p.Eligible})
	}
	for _, item := range found {
		for _, t := range r.trackers {
			added, problems := t.OnFound(item)
			r.record(t.Label(), added, problems)
		}
	}
	return nil
}

func (r *Run) record(label string, added []string, problems []tracker.Problem) {
	if len(added) > 0 {
		r.emit(Event{Kind: EventCategory, Report: label, Names: added})
	}
	for _, p := range problems {
		r.problems = append(r.problems, fmt.Sprintf("%s: %v", label, p))
		r.emit(Event{Kind: EventProblem, Report: label, Names: []string{p.Category}, Err: p.Err})
	}
}

func (r *Run) ended() bool {
	for _, end := range r.cfg.EndStates {
		if r.state.Unlocks.Has(end) {
			return true
		}
	}
	return false
}

func (r *Run) fail(err error) (RunReport, error) {
	r.phase = PhaseFailed
	r.emit(Event{Kind: EventRunFailed, Err: err})
	return r.report(), err
}

func (r *Run) report() RunReport {
	choices := r.state.Unlocks.Items()
	rep := RunReport{
		Choices:     choices,
		ChoiceCount: len(choices),
		Found:       r.state.Found.Items(),
		Categories:  make(map[string][]string, len(r.trackers)),
	}
	for _, t := range r.trackers {
		rep.Categories[t.Label()] = t.Categories()
	}
	if len(r.problems) > 0 {
		rep.Problems = append([]string(nil), r.problems...)
	}
	return rep
}

func (r *Run) emit(e Event) {
	if r.cfg.Observer == nil {
		return
	}
	e.File = r.cfg.File
	e.Scenario = r.cfg.Scenario
	e.Run = r.cfg.Index
	e.Step = r.step
	r.cfg.Observer.Observe(e)
}
