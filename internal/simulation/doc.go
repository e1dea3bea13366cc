// Package simulation plays randomized-item playthroughs and aggregates their
// category outcomes.
//
// A Run is one playthrough: it seeds the found set from the initial slots,
// closes over the unlock rules, and then repeatedly asks its choice policy to
// complete one eligible milestone until an end state is reached. Qualitative
// trackers observe every completed milestone and every found item.
//
// A Simulator fans runs out over a bounded worker pool. Each run owns its
// state, its trackers, and its random source, which is derived from the base
// seed and the run's position, so results do not depend on the worker count.
//
// Usage:
//
//	sim, err := simulation.NewSimulator(g, spec, simulation.Options{Workers: 4, Seed: 7})
//	if err != nil {
//	    return err
//	}
//	report, err := sim.Run(ctx, []simulation.ChoiceFile{{Name: "seed-1.yaml", Choices: choices}})
package simulation
