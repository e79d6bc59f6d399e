package neat

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Genome pairs a Network with per-weight and per-activation innovation
// markers (historical marks used for crossover and compatibility
// distance), a fitness scalar, and a ticks-alive counter.
type Genome struct {
	Net *Network

	// InnovWeight[i] is the innovation id assigned to weight i, or 0
	// if weight i is disabled (exactly 0.0).
	InnovWeight []uint32
	// InnovActiv[j] is the innovation id assigned to activation j, or
	// 0 if activation j is Passthrough.
	InnovActiv []uint32

	UsedWeights int
	UsedActivs  int

	Fitness   float64
	TimeAlive uint64
}

// randTwo draws a value uniformly from [-2, +2), the range used for
// every fresh or perturbed weight.
func randTwo() float64 {
	return rand.Float64()*4 - 2
}

// NewGenome builds a fresh Genome: a zero-hidden-layer Network with
// randomized weights and the config's default activations, stamped
// with the given innovation on every weight and activation slot, then
// zeroified so disabled slots (weight 0.0, activation Passthrough)
// carry innovation 0.
func NewGenome(cfg Config, innovation uint32) (*Genome, error) {
	net, err := NewNetwork(cfg.NetworkInputs, cfg.NetworkHiddenNodes, cfg.NetworkOutputs, 0)
	if err != nil {
		return nil, err
	}
	net.SetActivations(cfg.DefaultHiddenActivation, cfg.DefaultOutputActivation)
	net.Randomize()

	g := &Genome{
		Net:         net,
		InnovWeight: make([]uint32, net.WeightCount()),
		InnovActiv:  make([]uint32, net.ActivationCount()),
	}
	for i := range g.InnovWeight {
		g.InnovWeight[i] = innovation
	}
	for i := range g.InnovActiv {
		g.InnovActiv[i] = innovation
	}
	g.zeroifyInnovations()
	return g, nil
}

// zeroifyInnovations keeps innovations aligned to the semantic "this
// link/activation is live" flag: a zero-valued weight or a Passthrough
// activation is reported as innovation 0 and excluded from the
// used-weights/used-activations counts.
func (g *Genome) zeroifyInnovations() {
	w := g.Net.Weights()
	g.UsedWeights = 0
	for i := range g.InnovWeight {
		if w[i] == 0 {
			g.InnovWeight[i] = 0
		} else {
			g.UsedWeights++
		}
	}

	a := g.Net.Activations()
	g.UsedActivs = 0
	for i := range g.InnovActiv {
		if a[i] == Passthrough {
			g.InnovActiv[i] = 0
		} else {
			g.UsedActivs++
		}
	}
}

// Copy returns a deep copy of the genome.
func (g *Genome) Copy() *Genome {
	return &Genome{
		Net:         g.Net.Copy(),
		InnovWeight: append([]uint32(nil), g.InnovWeight...),
		InnovActiv:  append([]uint32(nil), g.InnovActiv...),
		UsedWeights: g.UsedWeights,
		UsedActivs:  g.UsedActivs,
		Fitness:     g.Fitness,
		TimeAlive:   g.TimeAlive,
	}
}

// Run delegates to the underlying Network.
func (g *Genome) Run(inputs []float64) ([]float64, error) {
	return g.Net.Run(inputs)
}

// Mutate applies add-neuron, add-link, change-activation,
// weight-perturb, and all-weights-perturb in order, each
// independently gated by its configured probability. add-neuron is
// forced whenever the network has no hidden layers yet, since a fresh
// genome must grow at least one layer before any other structural
// mutation has anywhere to act.
func (g *Genome) Mutate(cfg Config, innovation uint32) {
	if g.Net.HiddenLayers() == 0 || rand.Float64() < cfg.GenomeAddNeuronMutationProbability {
		g.addNeuron(cfg, innovation)
	}
	if rand.Float64() < cfg.GenomeAddLinkMutationProbability {
		g.addLink(innovation)
	}
	if rand.Float64() < cfg.GenomeChangeActivationProbability {
		g.changeActivation(innovation)
	}
	if rand.Float64() < cfg.GenomeWeightMutationProbability {
		g.perturbWeight(innovation)
	}
	if rand.Float64() < cfg.GenomeAllWeightsMutationProbability {
		g.perturbAllWeights(innovation)
	}
}

// addNeuron picks a random hidden layer, including the not-yet-existing
// layer at index HiddenLayers(); choosing that layer grows the network
// by one hidden layer first. It then scans the chosen layer, starting
// at a random offset, for the first Passthrough (disabled) neuron and
// activates it.
func (g *Genome) addNeuron(cfg Config, innovation uint32) {
	net := g.Net
	layer := rand.Intn(net.HiddenLayers() + 1)

	if layer == net.HiddenLayers() {
		g.addLayerWithInnovation(1.0, innovation)
		layer = net.HiddenLayers() - 1
	}

	start, size := net.hiddenLayerRange(layer)
	if size == 0 {
		return
	}
	offset := rand.Intn(size)
	for i := 0; i < size; i++ {
		pos := (offset + i) % size
		neuronID := start + pos
		actIdx := neuronID - net.nIn
		if net.activ[actIdx] == Passthrough {
			activation := cfg.DefaultHiddenActivation
			if layer == net.HiddenLayers()-1 {
				activation = cfg.DefaultOutputActivation
			}
			net.activ[actIdx] = activation
			g.InnovActiv[actIdx] = innovation
			g.UsedActivs++
			return
		}
	}
}

// hiddenLayerRange returns the neuron id range [start, start+size) of
// the 0-indexed hidden layer layerIdx.
func (n *Network) hiddenLayerRange(layerIdx int) (start, size int) {
	return n.nIn + layerIdx*n.hiddenWidth, n.hiddenWidth
}

// addLayerWithInnovation grows the network by one hidden layer and
// extends the innovation arrays to match the network's new shape,
// mirroring exactly how Network.AddHiddenLayer reshapes the weight
// array: the prefix (input..last-existing-hidden blocks) is preserved
// in place, a new block is inserted, and the former output block is
// shifted after it. The single live bridge weight AddHiddenLayer
// creates per new neuron is stamped with innovation.
func (g *Genome) addLayerWithInnovation(connectionWeight float64, innovation uint32) {
	net := g.Net
	oldSizes := net.sizes()

	prefixLen := weightBlockStart(oldSizes, net.hiddenLayers+1)
	newBlockSize := (net.hiddenWidth + 1) * net.hiddenWidth
	outputBlockLen := len(net.weight) - prefixLen

	newInnovWeight := make([]uint32, prefixLen+newBlockSize+outputBlockLen)
	copy(newInnovWeight[:prefixLen], g.InnovWeight[:prefixLen])
	if connectionWeight != 0 {
		for pos := 0; pos < net.hiddenWidth; pos++ {
			off := prefixLen + pos*(net.hiddenWidth+1)
			newInnovWeight[off+1+pos] = innovation
		}
	}
	copy(newInnovWeight[prefixLen+newBlockSize:], g.InnovWeight[prefixLen:])

	prefixNeurons := neuronCountFor(oldSizes) - net.nOut
	prefixActiv := prefixNeurons - net.nIn
	newActivCount := (neuronCountFor(oldSizes) + net.hiddenWidth) - net.nIn
	newInnovActiv := make([]uint32, newActivCount)
	copy(newInnovActiv[:prefixActiv], g.InnovActiv[:prefixActiv])
	copy(newInnovActiv[newActivCount-net.nOut:], g.InnovActiv[len(g.InnovActiv)-net.nOut:])

	net.AddHiddenLayer(connectionWeight)

	g.InnovWeight = newInnovWeight
	g.InnovActiv = newInnovActiv
	if connectionWeight != 0 {
		g.UsedWeights += net.hiddenWidth
	}
}

// addLink picks one disabled (zero-valued) weight slot uniformly at
// random, assigns it a fresh value in [-2, +2), and stamps it with
// innovation. It is a silent no-op if every weight is already live.
func (g *Genome) addLink(innovation uint32) {
	net := g.Net
	available := net.WeightCount() - g.UsedWeights
	if available <= 0 {
		return
	}
	selected := rand.Intn(available)
	for i, w := range net.weight {
		if w == 0 {
			if selected == 0 {
				net.weight[i] = randTwo()
				g.InnovWeight[i] = innovation
				g.UsedWeights++
				return
			}
			selected--
		}
	}
}

// changeActivation picks one activation slot uniformly at random and
// overwrites it with a different activation, maintaining the
// InnovActiv == 0 <=> Passthrough invariant.
func (g *Genome) changeActivation(innovation uint32) {
	if len(g.Net.activ) == 0 {
		return
	}
	idx := rand.Intn(len(g.Net.activ))
	current := g.Net.activ[idx]

	var next Activation
	for {
		next = Activation(rand.Intn(4))
		if next != current {
			break
		}
	}

	g.Net.activ[idx] = next
	if next == Passthrough {
		if current != Passthrough {
			g.UsedActivs--
		}
		g.InnovActiv[idx] = 0
	} else {
		if current == Passthrough {
			g.UsedActivs++
		}
		g.InnovActiv[idx] = innovation
	}
}

// perturbWeight picks one currently-live weight uniformly at random
// and replaces it with a fresh value in [-2, +2).
func (g *Genome) perturbWeight(innovation uint32) {
	if g.UsedWeights == 0 {
		return
	}
	idx := rand.Intn(g.UsedWeights)
	for i, w := range g.Net.weight {
		if w != 0 {
			if idx == 0 {
				g.Net.weight[i] = randTwo()
				g.InnovWeight[i] = innovation
				return
			}
			idx--
		}
	}
}

// perturbAllWeights replaces every currently-live weight with a fresh
// value in [-2, +2).
func (g *Genome) perturbAllWeights(innovation uint32) {
	for i, w := range g.Net.weight {
		if w != 0 {
			g.Net.weight[i] = randTwo()
			g.InnovWeight[i] = innovation
		}
	}
}

// Reproduce produces a child genome from two parents via blended
// crossover. The higher-fitness parent is the base: the child starts
// as its copy, so disjoint and excess genes are inherited from it
// automatically. For every matching gene (same innovation id, within
// the shorter innovation array) the child's weight is the average of
// the two parents' weights.
func Reproduce(parent1, parent2 *Genome) *Genome {
	if parent2.Fitness > parent1.Fitness {
		parent1, parent2 = parent2, parent1
	}

	child := parent1.Copy()

	n := len(parent1.InnovWeight)
	if len(parent2.InnovWeight) < n {
		n = len(parent2.InnovWeight)
	}

	w1 := parent1.Net.Weights()
	w2 := parent2.Net.Weights()
	cw := child.Net.Weights()
	for i := 0; i < n; i++ {
		if parent1.InnovWeight[i] == parent2.InnovWeight[i] {
			cw[i] = (w1[i] + w2[i]) / 2
		}
	}

	child.zeroifyInnovations()
	return child
}

// IsCompatible computes the NEAT compatibility distance between g and
// other over their innovation arrays and reports whether it falls
// under threshold, adjusted by the current number of species: the
// adjusted threshold grows with the species count, so genomes are
// judged compatible more readily as species proliferate and less
// readily when few exist.
func (g *Genome) IsCompatible(other *Genome, threshold float64, totalSpecies int) bool {
	wa := g.Net.Weights()
	wb := other.Net.Weights()

	minN, maxN := len(wa), len(wb)
	if len(wb) < len(wa) {
		minN, maxN = len(wb), len(wa)
	}
	if maxN == 0 {
		return true
	}

	excess := maxN - minN
	var disjoint, matching int
	diffs := make([]float64, 0, minN)

	ia, ib := g.InnovWeight, other.InnovWeight
	for i := 0; i < minN; i++ {
		if ia[i] == ib[i] {
			diffs = append(diffs, math.Abs(wa[i]-wb[i]))
			matching++
		} else {
			disjoint++
		}
	}
	weightSum := floats.Sum(diffs)

	distance := 1.0*float64(excess)/float64(maxN) +
		1.5*float64(disjoint)/float64(maxN) +
		0.4*weightSum/float64(matching+1)

	adjusted := threshold * (0.1 + float64(totalSpecies)/5.0)
	return distance < adjusted
}
