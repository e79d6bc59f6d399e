package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.NetworkInputs = 2
	cfg.NetworkOutputs = 1
	cfg.NetworkHiddenNodes = 3
	return cfg
}

func TestNewGenomeInvariants(t *testing.T) {
	cfg := testConfig()
	g, err := NewGenome(cfg, 1)
	require.NoError(t, err)

	assertZeroifyInvariant(t, g)
}

func assertZeroifyInvariant(t *testing.T, g *Genome) {
	t.Helper()
	w := g.Net.Weights()
	for i := range w {
		if w[i] == 0 {
			assert.Equal(t, uint32(0), g.InnovWeight[i])
		} else {
			assert.NotEqual(t, uint32(0), g.InnovWeight[i])
		}
	}

	a := g.Net.Activations()
	for i := range a {
		if a[i] == Passthrough {
			assert.Equal(t, uint32(0), g.InnovActiv[i])
		} else {
			assert.NotEqual(t, uint32(0), g.InnovActiv[i])
		}
	}

	liveWeights := 0
	for _, x := range w {
		if x != 0 {
			liveWeights++
		}
	}
	assert.Equal(t, liveWeights, g.UsedWeights)

	liveActivs := 0
	for _, x := range a {
		if x != Passthrough {
			liveActivs++
		}
	}
	assert.Equal(t, liveActivs, g.UsedActivs)
}

func TestZeroifyInnovationsIdempotent(t *testing.T) {
	cfg := testConfig()
	g, err := NewGenome(cfg, 1)
	require.NoError(t, err)

	g.zeroifyInnovations()
	w1 := append([]uint32(nil), g.InnovWeight...)
	a1 := append([]uint32(nil), g.InnovActiv...)

	g.zeroifyInnovations()
	assert.Equal(t, w1, g.InnovWeight)
	assert.Equal(t, a1, g.InnovActiv)
}

func TestGenomeCopyRunRoundTrip(t *testing.T) {
	cfg := testConfig()
	g, err := NewGenome(cfg, 1)
	require.NoError(t, err)

	clone := g.Copy()
	in := []float64{0.3, -0.4}

	out1, err := g.Run(in)
	require.NoError(t, err)
	out2, err := clone.Run(in)
	require.NoError(t, err)

	assert.Equal(t, out1, out2)

	clone.Net.Weights()[0] = 12345
	assert.NotEqual(t, g.Net.Weights()[0], clone.Net.Weights()[0])
}

func TestGenomeMutateForcesFirstHiddenLayer(t *testing.T) {
	cfg := testConfig()
	g, err := NewGenome(cfg, 1)
	require.NoError(t, err)
	require.Equal(t, 0, g.Net.HiddenLayers())

	g.Mutate(cfg, 2)
	assert.Equal(t, 1, g.Net.HiddenLayers())
	assertZeroifyInvariant(t, g)
}

func TestGenomeMutatePreservesInvariantAcrossManyCalls(t *testing.T) {
	cfg := testConfig()
	g, err := NewGenome(cfg, 1)
	require.NoError(t, err)

	for i := uint32(2); i < 50; i++ {
		g.Mutate(cfg, i)
		assertZeroifyInvariant(t, g)
	}
}

func TestReproduceChildInheritsFromFitterParent(t *testing.T) {
	cfg := testConfig()
	p1, err := NewGenome(cfg, 1)
	require.NoError(t, err)
	p2, err := NewGenome(cfg, 1)
	require.NoError(t, err)

	p1.Fitness = 10
	p2.Fitness = 1

	child := Reproduce(p1, p2)
	assertZeroifyInvariant(t, child)
	assert.Equal(t, p1.Net.WeightCount(), child.Net.WeightCount())
}

func TestReproduceBlendsMatchingWeights(t *testing.T) {
	cfg := testConfig()
	p1, err := NewGenome(cfg, 1)
	require.NoError(t, err)
	p2 := p1.Copy()

	w1 := p1.Net.Weights()
	w2 := p2.Net.Weights()
	for i := range w1 {
		if w1[i] != 0 {
			w1[i] = 2.0
			w2[i] = 4.0
			p1.InnovWeight[i] = 7
			p2.InnovWeight[i] = 7
		}
	}
	p1.Fitness = 5
	p2.Fitness = 1

	child := Reproduce(p1, p2)
	cw := child.Net.Weights()
	for i := range w1 {
		if w1[i] != 0 {
			assert.InDelta(t, 3.0, cw[i], 1e-9)
		}
	}
}

func TestIsCompatibleIdenticalGenomesAreCompatible(t *testing.T) {
	cfg := testConfig()
	g, err := NewGenome(cfg, 1)
	require.NoError(t, err)
	clone := g.Copy()

	assert.True(t, g.IsCompatible(clone, cfg.GenomeCompatibilityThreshold, 1))
}

func TestIsCompatibleDivergesAfterManyMutations(t *testing.T) {
	cfg := testConfig()
	g1, err := NewGenome(cfg, 1)
	require.NoError(t, err)
	g2 := g1.Copy()

	for i := uint32(2); i < 200; i++ {
		g2.Mutate(cfg, i)
	}

	assert.False(t, g1.IsCompatible(g2, cfg.GenomeCompatibilityThreshold, 1))
}
