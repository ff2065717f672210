package correlator

import (
	"fmt"
	"time"
)

// Tier is one (window, trigger) threshold for an event kind. Each tier is
// counted under its own key so tiers of one kind never reset each other.
type Tier struct {
	Kind    string        `yaml:"-" json:"kind"`
	Name    string        `yaml:"name" json:"name"`
	Window  time.Duration `yaml:"window" json:"window"`
	Trigger int           `yaml:"trigger" json:"trigger"`
}

func (t Tier) Key() string {
	if t.Name == "" {
		return t.Kind
	}
	return t.Kind + ":" + t.Name
}

func (t Tier) Validate() error {
	if t.Kind == "" {
		return fmt.Errorf("tier %q: empty event kind", t.Name)
	}
	if t.Window <= 0 {
		return fmt.Errorf("tier %s: window must be positive, got %s", t.Key(), t.Window)
	}
	if t.Trigger < 1 {
		return fmt.Errorf("tier %s: trigger must be at least 1, got %d", t.Key(), t.Trigger)
	}
	return nil
}

func (t Tier) String() string {
	return fmt.Sprintf("%s (>%d in %s)", t.Key(), t.Trigger, t.Window)
}

// Firing reports a tier whose trigger count was exceeded by the current event.
type Firing[P any] struct {
	Tier    Tier
	Count   int
	Payload P
}

// Evaluator runs tier lists against a Registry.
type Evaluator[P any] struct {
	registry *Registry[P]
}

func NewEvaluator[P any](registry *Registry[P]) *Evaluator[P] {
	return &Evaluator[P]{registry: registry}
}

func (e *Evaluator[P]) Registry() *Registry[P] {
	return e.registry
}

// Evaluate records the event once per tier and returns every tier that fired.
// A fired tier's counter is already cleared; other tiers are untouched.
// mutate, if set, is applied to each tier's payload before the decision.
func (e *Evaluator[P]) Evaluate(scope string, tiers []Tier, mutate func(*P)) []Firing[P] {
	var fired []Firing[P]
	for _, tier := range tiers {
		obs := e.registry.Observe(scope, tier.Key(), tier.Window, tier.Trigger, mutate)
		if obs.Fired {
			fired = append(fired, Firing[P]{
				Tier:    tier,
				Count:   obs.Count,
				Payload: obs.Payload,
			})
		}
	}
	return fired
}
