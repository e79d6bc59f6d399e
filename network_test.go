package neat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkIdentityAfterLayerGrowth(t *testing.T) {
	n, err := NewNetwork(1, 1, 1, 1)
	require.NoError(t, err)
	n.SetBias(0)
	require.NoError(t, n.SetWeights([]float64{0, 1, 0, 2}))

	out, err := n.Run([]float64{1.0})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out[0], 1e-9)

	require.NoError(t, n.AddHiddenLayer(3.0))
	out, err = n.Run([]float64{1.0})
	require.NoError(t, err)
	assert.InDelta(t, 6.0, out[0], 1e-9)
}

func TestNetworkAddHiddenLayerZeroBridgeBreaksIdentity(t *testing.T) {
	n, err := NewNetwork(1, 1, 1, 1)
	require.NoError(t, err)
	n.SetBias(0)
	require.NoError(t, n.SetWeights([]float64{0, 1, 0, 2}))

	before, err := n.Run([]float64{1.0})
	require.NoError(t, err)

	require.NoError(t, n.AddHiddenLayer(0.0))
	after, err := n.Run([]float64{1.0})
	require.NoError(t, err)

	assert.NotEqual(t, before[0], after[0])
}

func TestNetworkHandBuiltXOR(t *testing.T) {
	n, err := NewNetwork(2, 2, 1, 1)
	require.NoError(t, err)
	n.SetActivations(ReLU, ReLU)
	n.SetBias(0)
	require.NoError(t, n.SetWeights([]float64{0, -1, 1, 0, 1, -1, 0, 1, 1}))

	cases := []struct {
		in   []float64
		want float64
	}{
		{[]float64{0, 0}, 0},
		{[]float64{0, 1}, 1},
		{[]float64{1, 0}, 1},
		{[]float64{1, 1}, 0},
	}
	for _, c := range cases {
		out, err := n.Run(c.in)
		require.NoError(t, err)
		assert.InDelta(t, c.want, out[0], 1e-9, "input %v", c.in)
	}
}

func TestNetworkReLUPassthrough(t *testing.T) {
	n, err := NewNetwork(1, 1, 1, 0)
	require.NoError(t, err)
	n.SetActivations(ReLU, ReLU)
	n.SetBias(0)
	require.NoError(t, n.SetWeights([]float64{1, 1}))

	inputs := []float64{-1, 0, 1, 2, 3, 4}
	want := []float64{0, 0, 1, 2, 3, 4}
	for i, in := range inputs {
		out, err := n.Run([]float64{in})
		require.NoError(t, err)
		assert.InDelta(t, want[i], out[0], 1e-9)
	}
}

func TestNetworkSigmoidSingleNeuron(t *testing.T) {
	n, err := NewNetwork(1, 1, 1, 0)
	require.NoError(t, err)
	n.SetActivations(Sigmoid, Sigmoid)
	n.SetBias(0)
	require.NoError(t, n.SetWeights([]float64{1, 1}))

	out, err := n.Run([]float64{1.0})
	require.NoError(t, err)
	assert.InDelta(t, 0.7311, out[0], 0.1)
}

func TestNetworkZeroHiddenLayersWeightCount(t *testing.T) {
	n, err := NewNetwork(3, 5, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, (3+1)*2, n.WeightCount())
	assert.Equal(t, 3+2, n.NeuronCount())
}

func TestNetworkWeightAndNeuronCountsMatchLayout(t *testing.T) {
	n, err := NewNetwork(4, 6, 3, 2)
	require.NoError(t, err)
	want := (4+1)*6 + (6+1)*6 + (6+1)*3
	assert.Equal(t, want, n.WeightCount())
	assert.Equal(t, 4+6*2+3, n.NeuronCount())
}

func TestNetworkRunRejectsShapeMismatch(t *testing.T) {
	n, err := NewNetwork(2, 2, 1, 1)
	require.NoError(t, err)
	_, err = n.Run([]float64{1})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestNewNetworkRejectsInvalidShape(t *testing.T) {
	_, err := NewNetwork(0, 1, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidShape)
	_, err = NewNetwork(1, 1, 1, -1)
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestNetworkCopyIsIndependent(t *testing.T) {
	n, err := NewNetwork(2, 2, 1, 1)
	require.NoError(t, err)
	n.Randomize()

	clone := n.Copy()
	clone.Weights()[0] = 999

	assert.NotEqual(t, n.Weights()[0], clone.Weights()[0])
}

func TestNetworkSetWeightsRejectsWrongLength(t *testing.T) {
	n, err := NewNetwork(2, 2, 1, 1)
	require.NoError(t, err)
	err = n.SetWeights([]float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
