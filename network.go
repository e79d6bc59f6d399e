package neat

import (
	"fmt"
	"io"
	"math/rand"
)

// Network is a dense, feed-forward neural network with a fixed input
// and output width, a fixed hidden-layer width, and a dynamically
// growing number of hidden layers. Neurons are ordered input, then
// hidden layer 1..nHiddenLayers (layer-major), then output. Weights
// are grouped by downstream layer, and within a layer by downstream
// neuron, bias weight first.
type Network struct {
	nIn          int
	hiddenWidth  int
	nOut         int
	hiddenLayers int

	weight []float64
	output []float64
	activ  []Activation
	bias   float64
}

// NewNetwork allocates a Network of the given shape with all weights,
// outputs, and activations zeroed and bias defaulted to -1.0.
// nIn, hiddenWidth, and nOut must all be positive; hiddenLayers may be
// zero.
func NewNetwork(nIn, hiddenWidth, nOut, hiddenLayers int) (*Network, error) {
	if nIn <= 0 || hiddenWidth <= 0 || nOut <= 0 || hiddenLayers < 0 {
		return nil, ErrInvalidShape
	}

	sizes := layerSizesOf(nIn, hiddenWidth, nOut, hiddenLayers)
	nWeights := weightCountFor(sizes)
	nNeurons := neuronCountFor(sizes)

	return &Network{
		nIn:          nIn,
		hiddenWidth:  hiddenWidth,
		nOut:         nOut,
		hiddenLayers: hiddenLayers,
		weight:       make([]float64, nWeights),
		output:       make([]float64, nNeurons),
		activ:        make([]Activation, nNeurons-nIn),
		bias:         -1.0,
	}, nil
}

// layerSizesOf returns the per-layer neuron counts: input, then
// hiddenLayers copies of hiddenWidth, then output.
func layerSizesOf(nIn, hiddenWidth, nOut, hiddenLayers int) []int {
	sizes := make([]int, 0, hiddenLayers+2)
	sizes = append(sizes, nIn)
	for i := 0; i < hiddenLayers; i++ {
		sizes = append(sizes, hiddenWidth)
	}
	sizes = append(sizes, nOut)
	return sizes
}

func weightCountFor(sizes []int) int {
	total := 0
	for i := 1; i < len(sizes); i++ {
		total += (sizes[i-1] + 1) * sizes[i]
	}
	return total
}

func neuronCountFor(sizes []int) int {
	total := 0
	for _, s := range sizes {
		total += s
	}
	return total
}

// weightBlockStart returns the index into the weight array where the
// block feeding downstream layer `layer` (1-indexed: layer 1 is fed by
// the input layer) begins.
func weightBlockStart(sizes []int, layer int) int {
	start := 0
	for i := 1; i < layer; i++ {
		start += (sizes[i-1] + 1) * sizes[i]
	}
	return start
}

// neuronLayerStart returns the index into the neuron/output array
// where layer `layer` (0-indexed: layer 0 is the input layer) begins.
func neuronLayerStart(sizes []int, layer int) int {
	start := 0
	for i := 0; i < layer; i++ {
		start += sizes[i]
	}
	return start
}

func (n *Network) sizes() []int {
	return layerSizesOf(n.nIn, n.hiddenWidth, n.nOut, n.hiddenLayers)
}

// neuronLayerAndPos locates which layer a neuron id belongs to, and
// its position within that layer.
func (n *Network) neuronLayerAndPos(id int) (layer, pos int, sizes []int, err error) {
	sizes = n.sizes()
	if id < 0 {
		return 0, 0, nil, ErrShapeMismatch
	}
	cum := 0
	for i, s := range sizes {
		if id < cum+s {
			return i, id - cum, sizes, nil
		}
		cum += s
	}
	return 0, 0, nil, ErrShapeMismatch
}

// InputCount, HiddenWidth, OutputCount, HiddenLayers, NeuronCount,
// WeightCount, and ActivationCount expose the network's dimensions.
func (n *Network) InputCount() int      { return n.nIn }
func (n *Network) HiddenWidth() int     { return n.hiddenWidth }
func (n *Network) OutputCount() int     { return n.nOut }
func (n *Network) HiddenLayers() int    { return n.hiddenLayers }
func (n *Network) NeuronCount() int     { return len(n.output) }
func (n *Network) WeightCount() int     { return len(n.weight) }
func (n *Network) ActivationCount() int { return len(n.activ) }
func (n *Network) Bias() float64        { return n.bias }

// Weights returns the live weight array. Callers must not retain it
// across a SetWeights/AddHiddenLayer call.
func (n *Network) Weights() []float64 { return n.weight }

// Activations returns the per-live-neuron activation tags.
func (n *Network) Activations() []Activation { return n.activ }

// Copy returns a deep, byte-identical clone of the network.
func (n *Network) Copy() *Network {
	clone := &Network{
		nIn:          n.nIn,
		hiddenWidth:  n.hiddenWidth,
		nOut:         n.nOut,
		hiddenLayers: n.hiddenLayers,
		bias:         n.bias,
		weight:       make([]float64, len(n.weight)),
		output:       make([]float64, len(n.output)),
		activ:        make([]Activation, len(n.activ)),
	}
	copy(clone.weight, n.weight)
	copy(clone.output, n.output)
	copy(clone.activ, n.activ)
	return clone
}

// AddHiddenLayer appends one hidden layer right before the output
// layer. All previously existing input and hidden weights are
// preserved in place; the output layer's weights are shifted to their
// new position unchanged. Each of the hiddenWidth neurons in the new
// layer gets exactly one live incoming weight, set to
// connectionWeight, from the neuron at the same vertical index in the
// previous layer; an approximate identity bridge when connectionWeight
// is 1.0. All other new weights stay disabled (0.0).
func (n *Network) AddHiddenLayer(connectionWeight float64) error {
	oldSizes := n.sizes()
	newSizes := layerSizesOf(n.nIn, n.hiddenWidth, n.nOut, n.hiddenLayers+1)

	prefixLen := weightBlockStart(oldSizes, n.hiddenLayers+1)
	newBlockSize := (n.hiddenWidth + 1) * n.hiddenWidth
	outputBlockLen := len(n.weight) - prefixLen

	newWeight := make([]float64, prefixLen+newBlockSize+outputBlockLen)
	copy(newWeight[:prefixLen], n.weight[:prefixLen])
	for pos := 0; pos < n.hiddenWidth; pos++ {
		off := prefixLen + pos*(n.hiddenWidth+1)
		newWeight[off+1+pos] = connectionWeight
	}
	copy(newWeight[prefixLen+newBlockSize:], n.weight[prefixLen:])

	newNeuronCount := neuronCountFor(newSizes)
	newOutput := make([]float64, newNeuronCount)
	prefixNeurons := neuronCountFor(oldSizes) - n.nOut
	copy(newOutput[:prefixNeurons], n.output[:prefixNeurons])
	copy(newOutput[newNeuronCount-n.nOut:], n.output[len(n.output)-n.nOut:])

	newActivCount := newNeuronCount - n.nIn
	newActiv := make([]Activation, newActivCount)
	prefixActiv := prefixNeurons - n.nIn
	copy(newActiv[:prefixActiv], n.activ[:prefixActiv])
	copy(newActiv[newActivCount-n.nOut:], n.activ[len(n.activ)-n.nOut:])

	n.weight = newWeight
	n.output = newOutput
	n.activ = newActiv
	n.hiddenLayers++
	return nil
}

// SetActivations sets every hidden neuron's activation to hidden and
// every output neuron's activation to output.
func (n *Network) SetActivations(hidden, output Activation) {
	hiddenCount := n.hiddenWidth * n.hiddenLayers
	for i := 0; i < hiddenCount; i++ {
		n.activ[i] = hidden
	}
	for i := hiddenCount; i < len(n.activ); i++ {
		n.activ[i] = output
	}
}

// SetBias overwrites the bias scalar multiplied by the leading weight
// of every downstream neuron's block.
func (n *Network) SetBias(b float64) { n.bias = b }

// SetWeights overwrites the whole weight array; w must have exactly
// WeightCount() entries.
func (n *Network) SetWeights(w []float64) error {
	if len(w) != len(n.weight) {
		return ErrShapeMismatch
	}
	copy(n.weight, w)
	return nil
}

// Randomize draws every weight uniformly from [-0.5, +0.5].
func (n *Network) Randomize() {
	for i := range n.weight {
		n.weight[i] = rand.Float64() - 0.5
	}
}

// Run evaluates the network layer by layer, left to right, and
// returns a view on the output-layer slice. Inputs are copied
// verbatim (no activation) into the input slots.
func (n *Network) Run(inputs []float64) ([]float64, error) {
	if len(inputs) != n.nIn {
		return nil, ErrShapeMismatch
	}

	sizes := n.sizes()
	copy(n.output[:n.nIn], inputs)

	for layer := 1; layer < len(sizes); layer++ {
		prevSize := sizes[layer-1]
		curSize := sizes[layer]
		blockStart := weightBlockStart(sizes, layer)
		prevStart := neuronLayerStart(sizes, layer-1)
		curStart := neuronLayerStart(sizes, layer)

		for pos := 0; pos < curSize; pos++ {
			off := blockStart + pos*(prevSize+1)
			sum := n.weight[off] * n.bias
			for k := 0; k < prevSize; k++ {
				sum += n.weight[off+1+k] * n.output[prevStart+k]
			}
			neuronID := curStart + pos
			actIdx := neuronID - n.nIn
			n.output[neuronID] = n.activ[actIdx].Apply(sum)
		}
	}

	outStart := neuronLayerStart(sizes, len(sizes)-1)
	return n.output[outStart : outStart+n.nOut], nil
}

// NeuronIsConnected reports whether the given neuron has at least one
// live (nonzero) non-bias incoming weight. Inputs are always
// connected.
func (n *Network) NeuronIsConnected(id int) (bool, error) {
	if id < n.nIn {
		return true, nil
	}
	layer, pos, sizes, err := n.neuronLayerAndPos(id)
	if err != nil {
		return false, err
	}
	prevSize := sizes[layer-1]
	off := weightBlockStart(sizes, layer) + pos*(prevSize+1)
	for k := 1; k <= prevSize; k++ {
		if n.weight[off+k] != 0 {
			return true, nil
		}
	}
	return false, nil
}

// WeightOffsetToNeuron returns the index inside the weight array of
// the bias weight feeding the given downstream neuron.
func (n *Network) WeightOffsetToNeuron(id int) (int, error) {
	layer, pos, sizes, err := n.neuronLayerAndPos(id)
	if err != nil {
		return 0, err
	}
	if layer == 0 {
		return 0, ErrShapeMismatch
	}
	prevSize := sizes[layer-1]
	return weightBlockStart(sizes, layer) + pos*(prevSize+1), nil
}

// DumpWeights writes a human-readable, per-layer rendering of the
// weight array to w. It is a debug aid only, not a serialization
// format: there is no corresponding Load.
func (n *Network) DumpWeights(w io.Writer) {
	sizes := n.sizes()
	for layer := 1; layer < len(sizes); layer++ {
		prevSize := sizes[layer-1]
		curSize := sizes[layer]
		blockStart := weightBlockStart(sizes, layer)
		fmt.Fprintf(w, "layer %d -> %d:", layer-1, layer)
		for pos := 0; pos < curSize; pos++ {
			off := blockStart + pos*(prevSize+1)
			fmt.Fprintf(w, " [bias=%.3g", n.weight[off])
			for k := 0; k < prevSize; k++ {
				fmt.Fprintf(w, " %.3g", n.weight[off+1+k])
			}
			fmt.Fprint(w, "]")
		}
		fmt.Fprintln(w)
	}
}
