package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPopulation(t *testing.T, fitnesses []float64) *Population {
	t.Helper()
	cfg := testConfig()
	cfg.PopulationSize = len(fitnesses)

	p := &Population{Config: cfg}
	for i, f := range fitnesses {
		g, err := NewGenome(cfg, 1)
		require.NoError(t, err)
		g.Fitness = f
		p.Genomes = append(p.Genomes, g)
	}
	return p
}

func TestSpeciesAddRemoveContains(t *testing.T) {
	cfg := testConfig()
	s := NewSpecies(cfg)

	s.AddGenome(3)
	s.AddGenome(5)
	assert.True(t, s.ContainsGenome(3))
	assert.True(t, s.ContainsGenome(5))
	assert.Equal(t, 2, s.Size())
	assert.Equal(t, 3, s.Representant())

	assert.True(t, s.RemoveGenomeIfExists(3))
	assert.False(t, s.ContainsGenome(3))
	assert.Equal(t, 1, s.Size())

	assert.False(t, s.RemoveGenomeIfExists(999))
}

func TestSpeciesAddGenomeResetsStagnation(t *testing.T) {
	cfg := testConfig()
	s := NewSpecies(cfg)
	s.AddGenome(0)
	s.Generation = 5
	s.TimesStagnated = 2
	s.GenerationWithMaxFitness = 0

	s.AddGenome(1)
	assert.Equal(t, 0, s.TimesStagnated)
	assert.Equal(t, 5, s.GenerationWithMaxFitness)
}

func TestSpeciesUpdateAverageFitness(t *testing.T) {
	p := newTestPopulation(t, []float64{2, 4, 6})
	s := NewSpecies(p.Config)
	s.AddGenome(0)
	s.AddGenome(1)
	s.AddGenome(2)

	s.UpdateAverageFitness(p)
	assert.InDelta(t, 4.0, s.AvgFitness, 1e-9)
}

func TestSpeciesSelectBestAndSecondBest(t *testing.T) {
	p := newTestPopulation(t, []float64{1, 9, 5, 3})
	s := NewSpecies(p.Config)
	for i := range p.Genomes {
		s.AddGenome(i)
	}

	assert.Equal(t, 1, s.SelectBest(p))
	second := s.SelectSecondBest(p)
	assert.NotEqual(t, 1, second)
}

func TestSpeciesAdjustedFitnessPenalizesSize(t *testing.T) {
	cfg := testConfig()
	s := NewSpecies(cfg)
	s.AddGenome(0)
	s.AddGenome(1)

	assert.InDelta(t, 5.0, s.AdjustedFitness(10.0), 1e-9)
}

func TestSpeciesCullDeactivatesAfterStagnationsAllowed(t *testing.T) {
	p := newTestPopulation(t, []float64{1, 1})
	s := NewSpecies(p.Config)
	s.AddGenome(0)
	s.AddGenome(1)
	s.Generation = p.Config.SpeciesStagnationThreshold + 1

	s.Cull(p, p.Config)
	assert.True(t, s.Active)
	assert.Equal(t, 1, s.TimesStagnated)

	for i := 0; i < p.Config.SpeciesStagnationsAllowed; i++ {
		s.Generation += p.Config.SpeciesStagnationThreshold + 1
		s.Cull(p, p.Config)
	}

	assert.False(t, s.Active)
}

func TestSpeciesCullReseedsFromFirstMember(t *testing.T) {
	p := newTestPopulation(t, []float64{1, 1})
	s := NewSpecies(p.Config)
	s.AddGenome(0)
	s.AddGenome(1)
	s.Generation = p.Config.SpeciesStagnationThreshold + 1

	p.Genomes[1].Net.Weights()[0] = 999

	s.Cull(p, p.Config)
	assert.NotEqual(t, float64(999), p.Genomes[1].Net.Weights()[0])
}
