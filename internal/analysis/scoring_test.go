package analysis

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScoringIsValid(t *testing.T) {
	require.NoError(t, DefaultScoring().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Scoring)
		wantErr string
	}{
		{"negative depth weight", func(s *Scoring) { s.Weights.Depth = -1 }, "weight depth"},
		{"negative tasks weight", func(s *Scoring) { s.Weights.Tasks = -0.5 }, "weight tasks"},
		{"equal thresholds", func(s *Scoring) { s.Thresholds.Complex = s.Thresholds.Moderate }, "ascending"},
		{"descending thresholds", func(s *Scoring) { s.Thresholds.VeryComplex = 1 }, "ascending"},
		{"zero weights", func(s *Scoring) { s.Weights = Weights{} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultScoring()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScoreWeightedSum(t *testing.T) {
	s := DefaultScoring()
	in := Inputs{Elements: 10, MaxDepth: 4, Bindings: 6, Tasks: 2}
	assert.InDelta(t, 10*1.0+4*2.0+6*1.5+2*3.0, s.Score(in), 1e-9)
	assert.Zero(t, s.Score(Inputs{}))
}

func TestTierBoundaries(t *testing.T) {
	s := DefaultScoring()
	tests := []struct {
		score float64
		want  Tier
	}{
		{0, TierSimple},
		{24.99, TierSimple},
		{25, TierModerate},
		{74.9, TierModerate},
		{75, TierComplex},
		{199, TierComplex},
		{200, TierVeryComplex},
		{1e6, TierVeryComplex},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Tier(tt.score), "score %g", tt.score)
	}
}

// Growing any single input never lowers the score or the tier.
func TestScoreMonotonic(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for range 2000 {
		s := Scoring{
			Weights: Weights{
				Elements: rng.Float64() * 5,
				Depth:    rng.Float64() * 5,
				Bindings: rng.Float64() * 5,
				Tasks:    rng.Float64() * 5,
			},
			Thresholds: DefaultScoring().Thresholds,
		}
		require.NoError(t, s.Validate())

		base := Inputs{
			Elements: rng.IntN(500),
			MaxDepth: rng.IntN(40),
			Bindings: rng.IntN(200),
			Tasks:    rng.IntN(50),
		}
		grown := base
		switch rng.IntN(4) {
		case 0:
			grown.Elements += 1 + rng.IntN(50)
		case 1:
			grown.MaxDepth += 1 + rng.IntN(10)
		case 2:
			grown.Bindings += 1 + rng.IntN(50)
		case 3:
			grown.Tasks += 1 + rng.IntN(10)
		}

		before, after := s.Score(base), s.Score(grown)
		require.GreaterOrEqual(t, after, before, "base=%+v grown=%+v weights=%+v", base, grown, s.Weights)
		require.GreaterOrEqual(t, s.Tier(after), s.Tier(before))
	}
}

func TestTierText(t *testing.T) {
	for _, tier := range []Tier{TierSimple, TierModerate, TierComplex, TierVeryComplex} {
		b, err := tier.MarshalText()
		require.NoError(t, err)

		var back Tier
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, tier, back)
		assert.NotEmpty(t, tier.Recommendation())
	}

	var bad Tier
	assert.Error(t, bad.UnmarshalText([]byte("enormous")))
	assert.Equal(t, "unknown", Tier(9).String())
}
