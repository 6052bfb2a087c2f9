package analysis

import (
	"fmt"
	"strings"

	"github.com/mabhi256/bpmx/internal/extract"
)

const (
	// Score weights
	DefaultElementWeight = 1.0
	DefaultDepthWeight   = 2.0
	DefaultBindingWeight = 1.5
	DefaultTaskWeight    = 3.0

	// Tier cut points, lower bound inclusive
	DefaultModerateThreshold    = 25.0
	DefaultComplexThreshold     = 75.0
	DefaultVeryComplexThreshold = 200.0
)

type Weights struct {
	Elements float64 `yaml:"elements" json:"elements"`
	Depth    float64 `yaml:"depth" json:"depth"`
	Bindings float64 `yaml:"bindings" json:"bindings"`
	Tasks    float64 `yaml:"tasks" json:"tasks"`
}

type Thresholds struct {
	Moderate    float64 `yaml:"moderate" json:"moderate"`
	Complex     float64 `yaml:"complex" json:"complex"`
	VeryComplex float64 `yaml:"very_complex" json:"veryComplex"`
}

type Scoring struct {
	Weights    Weights    `yaml:"weights" json:"weights"`
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
}

func DefaultScoring() Scoring {
	return Scoring{
		Weights: Weights{
			Elements: DefaultElementWeight,
			Depth:    DefaultDepthWeight,
			Bindings: DefaultBindingWeight,
			Tasks:    DefaultTaskWeight,
		},
		Thresholds: Thresholds{
			Moderate:    DefaultModerateThreshold,
			Complex:     DefaultComplexThreshold,
			VeryComplex: DefaultVeryComplexThreshold,
		},
	}
}

// Validate rejects negative weights, which would make the score decrease
// as a document grows, and thresholds that are not strictly ascending.
func (s Scoring) Validate() error {
	w := s.Weights
	for name, v := range map[string]float64{
		"elements": w.Elements,
		"depth":    w.Depth,
		"bindings": w.Bindings,
		"tasks":    w.Tasks,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must be >= 0, got %g", name, v)
		}
	}
	t := s.Thresholds
	if !(t.Moderate < t.Complex && t.Complex < t.VeryComplex) {
		return fmt.Errorf("thresholds must be ascending, got %g, %g, %g", t.Moderate, t.Complex, t.VeryComplex)
	}
	return nil
}

// Inputs are the scan counters that feed the score.
type Inputs struct {
	Elements int `json:"elements"`
	MaxDepth int `json:"maxDepth"`
	Bindings int `json:"bindings"`
	Tasks    int `json:"tasks"`
}

func InputsFrom(state *extract.State) Inputs {
	return Inputs{
		Elements: state.CataloguedCount(),
		MaxDepth: state.MaxDepth,
		Bindings: len(state.Bindings),
		Tasks:    state.TaskCount,
	}
}

// Score is a weighted sum of the inputs. With non-negative weights it never
// decreases when any single input grows.
func (s Scoring) Score(in Inputs) float64 {
	w := s.Weights
	return float64(in.Elements)*w.Elements +
		float64(in.MaxDepth)*w.Depth +
		float64(in.Bindings)*w.Bindings +
		float64(in.Tasks)*w.Tasks
}

func (s Scoring) Tier(score float64) Tier {
	t := s.Thresholds
	switch {
	case score >= t.VeryComplex:
		return TierVeryComplex
	case score >= t.Complex:
		return TierComplex
	case score >= t.Moderate:
		return TierModerate
	default:
		return TierSimple
	}
}

type Tier int

const (
	TierSimple Tier = iota
	TierModerate
	TierComplex
	TierVeryComplex
)

var tierNames = []string{"simple", "moderate", "complex", "very-complex"}

func (t Tier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return "unknown"
	}
	return tierNames[t]
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(b)))
	for i, n := range tierNames {
		if n == name {
			*t = Tier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", name)
}

// Recommendation describes the conversion approach suited to a tier.
func (t Tier) Recommendation() string {
	switch t {
	case TierSimple:
		return "Convert directly: one React component per coach view, with bindings passed as props."
	case TierModerate:
		return "Convert component by component and move shared bindings into a typed state hook."
	case TierComplex:
		return "Split the largest views into sub-components before converting and map bindings to a central store."
	case TierVeryComplex:
		return "Plan a phased migration: extract components individually, review the binding graph, and port services to Node endpoints first."
	default:
		return ""
	}
}
