package neat

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
)

// Config lists every recognized rt-NEAT hyperparameter. It is
// immutable once a Population is created from it.
type Config struct {
	// Network shape.
	NetworkInputs      int `json:"networkInputs"`
	NetworkOutputs     int `json:"networkOutputs"`
	NetworkHiddenNodes int `json:"networkHiddenNodes"`

	// Population lifecycle.
	PopulationSize               int    `json:"populationSize"`
	MinimumTimeBeforeReplacement uint64 `json:"minimumTimeBeforeReplacement"`

	// Speciation / stagnation.
	SpeciesStagnationThreshold     int `json:"speciesStagnationThreshold"`
	SpeciesStagnationsAllowed      int `json:"speciesStagnationsAllowed"`
	SpeciesTicksBeforeReassignment int `json:"speciesTicksBeforeReassignment"`

	// Reproduction.
	SpeciesCrossoverProbability      float64 `json:"speciesCrossoverProbability"`
	InterspeciesCrossoverProbability float64 `json:"interspeciesCrossoverProbability"`

	// Mutation gates.
	GenomeAddNeuronMutationProbability  float64 `json:"genomeAddNeuronMutationProbability"`
	GenomeAddLinkMutationProbability    float64 `json:"genomeAddLinkMutationProbability"`
	GenomeChangeActivationProbability   float64 `json:"genomeChangeActivationProbability"`
	GenomeWeightMutationProbability     float64 `json:"genomeWeightMutationProbability"`
	GenomeAllWeightsMutationProbability float64 `json:"genomeAllWeightsMutationProbability"`

	// Replacement eligibility and compatibility.
	GenomeMinimumTicksAlive      uint64  `json:"genomeMinimumTicksAlive"`
	GenomeCompatibilityThreshold float64 `json:"genomeCompatibilityThreshold"`

	// Default activations assigned to newly created neurons.
	DefaultHiddenActivation Activation `json:"defaultHiddenActivation"`
	DefaultOutputActivation Activation `json:"defaultOutputActivation"`
}

// DefaultConfig returns sensible defaults for every hyperparameter.
func DefaultConfig() Config {
	return Config{
		NetworkInputs:      1,
		NetworkOutputs:     1,
		NetworkHiddenNodes: 1,

		PopulationSize:               100,
		MinimumTimeBeforeReplacement: 10,

		SpeciesStagnationThreshold:     100,
		SpeciesStagnationsAllowed:      2,
		SpeciesTicksBeforeReassignment: 10,

		SpeciesCrossoverProbability:      0.6,
		InterspeciesCrossoverProbability: 0.2,

		GenomeAddNeuronMutationProbability:  0.03,
		GenomeAddLinkMutationProbability:    0.05,
		GenomeChangeActivationProbability:   0.05,
		GenomeWeightMutationProbability:     0.1,
		GenomeAllWeightsMutationProbability: 0.1,

		GenomeMinimumTicksAlive:      100,
		GenomeCompatibilityThreshold: 0.2,

		DefaultHiddenActivation: ReLU,
		DefaultOutputActivation: Sigmoid,
	}
}

// NewConfigJSON loads a Config from a JSON file, starting from
// DefaultConfig so an omitted field keeps its default value.
func NewConfigJSON(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening config %q", filename)
	}
	defer f.Close()

	config := DefaultConfig()
	if err := json.NewDecoder(f).Decode(&config); err != nil {
		return nil, errors.Wrapf(err, "decoding config %q", filename)
	}
	return &config, nil
}

// validate checks the fields a Population requires to be positive
// before it can be created.
func (c Config) validate() error {
	if c.NetworkInputs <= 0 {
		return errors.Wrap(ErrInvalidConfig, "networkInputs must be > 0")
	}
	if c.NetworkOutputs <= 0 {
		return errors.Wrap(ErrInvalidConfig, "networkOutputs must be > 0")
	}
	if c.NetworkHiddenNodes <= 0 {
		return errors.Wrap(ErrInvalidConfig, "networkHiddenNodes must be > 0")
	}
	if c.PopulationSize <= 0 {
		return errors.Wrap(ErrInvalidConfig, "populationSize must be > 0")
	}
	if c.MinimumTimeBeforeReplacement == 0 {
		return errors.Wrap(ErrInvalidConfig, "minimumTimeBeforeReplacement must be > 0")
	}
	return nil
}

// Summarize prints the active hyperparameters to stdout in
// tabwriter-columned sections.
func (c Config) Summarize() {
	w := tabwriter.NewWriter(os.Stdout, 40, 1, 1, ' ', tabwriter.TabIndent)
	fmt.Fprintf(w, "==================================================\n")
	fmt.Fprintf(w, "Summary of rt-NEAT hyperparameter configuration\t\n")
	fmt.Fprintf(w, "==================================================\n")
	fmt.Fprintf(w, "--------------------------------------------------\n")
	fmt.Fprintf(w, "Network settings\t\n")
	fmt.Fprintf(w, "--------------------------------------------------\n")
	fmt.Fprintf(w, "+ Inputs\t%d\t\n", c.NetworkInputs)
	fmt.Fprintf(w, "+ Outputs\t%d\t\n", c.NetworkOutputs)
	fmt.Fprintf(w, "+ Hidden layer width\t%d\t\n", c.NetworkHiddenNodes)
	fmt.Fprintf(w, "--------------------------------------------------\n")
	fmt.Fprintf(w, "Population settings\t\n")
	fmt.Fprintf(w, "--------------------------------------------------\n")
	fmt.Fprintf(w, "+ Population size\t%d\t\n", c.PopulationSize)
	fmt.Fprintf(w, "+ Minimum ticks between replacements\t%d\t\n", c.MinimumTimeBeforeReplacement)
	fmt.Fprintf(w, "+ Minimum ticks alive before replacement\t%d\t\n", c.GenomeMinimumTicksAlive)
	fmt.Fprintf(w, "--------------------------------------------------\n")
	fmt.Fprintf(w, "Speciation settings\t\n")
	fmt.Fprintf(w, "--------------------------------------------------\n")
	fmt.Fprintf(w, "+ Stagnation threshold (generations)\t%d\t\n", c.SpeciesStagnationThreshold)
	fmt.Fprintf(w, "+ Stagnations allowed\t%d\t\n", c.SpeciesStagnationsAllowed)
	fmt.Fprintf(w, "+ Ticks before reassignment\t%d\t\n", c.SpeciesTicksBeforeReassignment)
	fmt.Fprintf(w, "+ Compatibility threshold\t%.3f\t\n", c.GenomeCompatibilityThreshold)
	fmt.Fprintf(w, "--------------------------------------------------\n")
	fmt.Fprintf(w, "Reproduction settings\t\n")
	fmt.Fprintf(w, "--------------------------------------------------\n")
	fmt.Fprintf(w, "+ Species crossover probability\t%.3f\t\n", c.SpeciesCrossoverProbability)
	fmt.Fprintf(w, "+ Interspecies crossover probability\t%.3f\t\n", c.InterspeciesCrossoverProbability)
	fmt.Fprintf(w, "--------------------------------------------------\n")
	fmt.Fprintf(w, "Mutation settings\t\n")
	fmt.Fprintf(w, "--------------------------------------------------\n")
	fmt.Fprintf(w, "+ Add neuron\t%.3f\t\n", c.GenomeAddNeuronMutationProbability)
	fmt.Fprintf(w, "+ Add link\t%.3f\t\n", c.GenomeAddLinkMutationProbability)
	fmt.Fprintf(w, "+ Change activation\t%.3f\t\n", c.GenomeChangeActivationProbability)
	fmt.Fprintf(w, "+ Perturb one weight\t%.3f\t\n", c.GenomeWeightMutationProbability)
	fmt.Fprintf(w, "+ Perturb all weights\t%.3f\t\n", c.GenomeAllWeightsMutationProbability)
	fmt.Fprintf(w, "+ Default hidden activation\t%s\t\n", c.DefaultHiddenActivation)
	fmt.Fprintf(w, "+ Default output activation\t%s\t\n", c.DefaultOutputActivation)
	fmt.Fprintf(w, "--------------------------------------------------\n")
	w.Flush()
}
