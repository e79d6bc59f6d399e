package neat

import (
	"math/rand"
	"sort"

	"github.com/pkg/errors"
)

// Population owns the fixed-size genome array and the dynamic list of
// species partitioning it, and runs the rt-NEAT per-tick evaluation
// and per-epoch evolutionary cycle.
type Population struct {
	Genomes []*Genome
	Species []*Species

	Innovation        uint32
	Ticks             uint64
	ReassignmentTicks uint32

	Config Config
}

// NewPopulation validates cfg and builds a fresh population of
// population-size random genomes sharing one initial innovation id,
// all members of a single starting species.
func NewPopulation(cfg Config) (*Population, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	p := &Population{Config: cfg, Innovation: 1}

	genomes := make([]*Genome, cfg.PopulationSize)
	for i := range genomes {
		g, err := NewGenome(cfg, p.Innovation)
		if err != nil {
			return nil, errors.Wrapf(err, "creating genome %d", i)
		}
		genomes[i] = g
	}
	p.Genomes = genomes

	s := NewSpecies(cfg)
	for i := range genomes {
		s.AddGenome(i)
	}
	p.Species = []*Species{s}

	return p, nil
}

// Run evaluates genome id's network on inputs.
func (p *Population) Run(id int, inputs []float64) ([]float64, error) {
	if err := p.checkGenomeID(id); err != nil {
		return nil, err
	}
	return p.Genomes[id].Run(inputs)
}

// SetFitness records the fitness the caller measured for genome id.
func (p *Population) SetFitness(id int, fitness float64) error {
	if err := p.checkGenomeID(id); err != nil {
		return err
	}
	p.Genomes[id].Fitness = fitness
	return nil
}

// IncreaseTimeAlive increments genome id's ticks-alive counter.
func (p *Population) IncreaseTimeAlive(id int) error {
	if err := p.checkGenomeID(id); err != nil {
		return err
	}
	p.Genomes[id].TimeAlive++
	return nil
}

func (p *Population) checkGenomeID(id int) error {
	if id < 0 || id >= len(p.Genomes) {
		return errors.Wrapf(ErrGenomeNotFound, "id %d", id)
	}
	return nil
}

// Epoch is the heart of rt-NEAT: every MinimumTimeBeforeReplacement
// ticks it evaluates species health, finds the single worst genome,
// replaces it with a child produced by fitness-proportional parent
// selection, crossover, and mutation, and reassigns the child to a
// species. It returns the id of the replaced genome, or replaced=false
// if this tick performed no replacement.
func (p *Population) Epoch() (replacedID int, replaced bool, err error) {
	p.Ticks++
	if p.Ticks%p.Config.MinimumTimeBeforeReplacement != 0 {
		return 0, false, nil
	}
	p.ReassignmentTicks++

	nSpeciesBefore := len(p.Species)
	p.Innovation++

	for _, s := range p.Species {
		s.IncreaseGeneration()
	}
	for _, s := range p.Species {
		s.UpdateAverageFitness(p)
	}

	p.removeDuplicateSpecies()

	respeciateDue := func() bool {
		return len(p.Species) != nSpeciesBefore &&
			p.ReassignmentTicks > uint32(p.Config.SpeciesTicksBeforeReassignment)
	}

	worstID, found := p.findWorstGenome()
	if !found {
		if respeciateDue() {
			p.respeciate()
		}
		return 0, false, nil
	}

	p.removeGenomeFromItsSpecies(worstID)
	p.reproduceInto(worstID)

	if respeciateDue() {
		p.respeciate()
	}

	return worstID, true, nil
}

// findWorstGenome picks the genome to replace this epoch. An inactive
// species drains one member (its representant) per epoch before any
// fitness-based comparison runs; otherwise the genome with the lowest
// adjusted fitness among those past their grace period is picked.
func (p *Population) findWorstGenome() (int, bool) {
	for _, s := range p.Species {
		if !s.Active {
			return s.Representant(), true
		}
	}

	worst := -1
	var worstFitness float64
	for i := len(p.Genomes) - 1; i >= 0; i-- {
		g := p.Genomes[i]
		if uint64(g.TimeAlive) <= p.Config.GenomeMinimumTicksAlive {
			continue
		}
		af := p.adjustedFitness(i)
		if worst == -1 || af < worstFitness {
			worst = i
			worstFitness = af
		}
	}
	if worst == -1 {
		return 0, false
	}
	return worst, true
}

func (p *Population) adjustedFitness(id int) float64 {
	for _, s := range p.Species {
		if s.ContainsGenome(id) {
			return s.AdjustedFitness(p.Genomes[id].Fitness)
		}
	}
	return p.Genomes[id].Fitness
}

// removeDuplicateSpecies deactivates the lower-average-fitness member
// of every pair of active species whose representants are still
// compatible under the current threshold.
func (p *Population) removeDuplicateSpecies() {
	for i := 0; i < len(p.Species); i++ {
		s1 := p.Species[i]
		if !s1.Active {
			continue
		}
		for j := i + 1; j < len(p.Species); j++ {
			s2 := p.Species[j]
			if !s2.Active {
				continue
			}
			g1 := p.Genomes[s1.Representant()]
			g2 := p.Genomes[s2.Representant()]
			if !g1.IsCompatible(g2, p.Config.GenomeCompatibilityThreshold, len(p.Species)) {
				continue
			}
			if s1.AvgFitness < s2.AvgFitness {
				s1.Active = false
				break
			}
			s2.Active = false
		}
	}
}

// removeGenomeFromItsSpecies removes id from whichever species holds
// it, destroying that species if it becomes empty.
func (p *Population) removeGenomeFromItsSpecies(id int) {
	for i := 0; i < len(p.Species); i++ {
		if !p.Species[i].RemoveGenomeIfExists(id) {
			continue
		}
		if p.Species[i].Size() == 0 {
			last := len(p.Species) - 1
			p.Species[i] = p.Species[last]
			p.Species = p.Species[:last]
		}
		return
	}
}

// reproduceInto recomputes species health, culls stagnant species,
// selects a parent species by fitness-proportional sampling, produces
// a child genome, installs it in the freed slot, and reassigns it to
// a species.
func (p *Population) reproduceInto(slot int) {
	for _, s := range p.Species {
		s.UpdateAverageFitness(p)
	}
	for i := len(p.Species) - 1; i >= 0; i-- {
		p.Species[i].Cull(p, p.Config)
	}

	sort.Slice(p.Species, func(i, j int) bool {
		return p.Species[i].AvgFitness > p.Species[j].AvgFitness
	})

	parentSpecies := p.selectParentSpecies()

	var child *Genome
	if parentSpecies == nil {
		child, _ = NewGenome(p.Config, p.Innovation)
	} else {
		parent1ID := parentSpecies.SelectBest(p)
		parent2ID := p.crossoverGetParent2(parentSpecies, parent1ID)

		if parent1ID != parent2ID && rand.Float64() < p.Config.SpeciesCrossoverProbability {
			child = Reproduce(p.Genomes[parent1ID], p.Genomes[parent2ID])
		} else {
			child = p.Genomes[parent1ID].Copy()
		}
		child.Mutate(p.Config, p.Innovation)
	}

	child.TimeAlive = 0
	p.Genomes[slot] = child
	p.assignToSpecies(slot)
}

// selectParentSpecies rolls a fitness-proportional (roulette-wheel)
// draw over the average fitness of every active, non-empty species;
// inactive and empty species take no part. Returns nil only when the
// population holds no active, non-empty species at all.
func (p *Population) selectParentSpecies() *Species {
	if len(p.Species) == 0 {
		return nil
	}

	eligible := 0
	totalAvg := 0.0
	for _, s := range p.Species {
		if !s.Active || s.Size() == 0 {
			continue
		}
		totalAvg += s.AvgFitness
		eligible++
	}

	if eligible > 0 && totalAvg != 0 {
		totalAvg /= float64(eligible)
		r := rand.Float64()
		for _, s := range p.Species {
			if !s.Active || s.Size() == 0 {
				continue
			}
			selectionProb := s.AvgFitness / totalAvg
			if r > selectionProb {
				r -= selectionProb
				continue
			}
			return s
		}
	}

	for _, s := range p.Species {
		if s.Active && s.Size() > 0 {
			return s
		}
	}
	return nil
}

// crossoverGetParent2 picks the second parent: with probability
// InterspeciesCrossoverProbability, the champion of a different
// eligible species; otherwise one of the top two genomes of the same
// species.
func (p *Population) crossoverGetParent2(species *Species, parent1ID int) int {
	if rand.Float64() < p.Config.InterspeciesCrossoverProbability {
		var candidates []*Species
		for _, s := range p.Species {
			if s != species && s.Active && s.Size() > 0 {
				candidates = append(candidates, s)
			}
		}
		if len(candidates) > 0 {
			other := candidates[rand.Intn(len(candidates))]
			return other.SelectBest(p)
		}
	}
	return species.SelectSecondBest(p)
}

// assignToSpecies speciates the genome at id: active, non-empty
// species are visited in a shuffled order, and the genome joins the
// first one whose representant it is compatible with. If none match,
// it founds a new species.
func (p *Population) assignToSpecies(id int) {
	idxs := make([]int, 0, len(p.Species))
	for i, s := range p.Species {
		if s.Active && s.Size() > 0 {
			idxs = append(idxs, i)
		}
	}
	rand.Shuffle(len(idxs), func(i, j int) { idxs[i], idxs[j] = idxs[j], idxs[i] })

	child := p.Genomes[id]
	for _, i := range idxs {
		s := p.Species[i]
		rep := p.Genomes[s.Representant()]
		if child.IsCompatible(rep, p.Config.GenomeCompatibilityThreshold, len(p.Species)) {
			s.AddGenome(id)
			return
		}
	}

	newSpecies := NewSpecies(p.Config)
	newSpecies.AddGenome(id)
	p.Species = append(p.Species, newSpecies)
}

// respeciate re-derives the whole species partition: every genome, in
// index order, is pulled from its current species (destroying it if
// that empties it) and re-run through assignToSpecies.
func (p *Population) respeciate() {
	for id := range p.Genomes {
		p.removeGenomeFromItsSpecies(id)
		p.assignToSpecies(id)
	}
	p.ReassignmentTicks = 0
}

// GetNetwork returns the network belonging to genome id.
func (p *Population) GetNetwork(id int) (*Network, error) {
	if err := p.checkGenomeID(id); err != nil {
		return nil, err
	}
	return p.Genomes[id].Net, nil
}

// GetSpeciesID returns the index (into the species slice returned
// conceptually by GetNumSpecies) of the species holding genome id.
func (p *Population) GetSpeciesID(id int) (int, error) {
	if err := p.checkGenomeID(id); err != nil {
		return 0, err
	}
	for i, s := range p.Species {
		if s.ContainsGenome(id) {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrSpeciesNotFound, "genome %d", id)
}

// GetNumSpecies returns the current number of species.
func (p *Population) GetNumSpecies() int {
	return len(p.Species)
}

func (p *Population) checkSpeciesIndex(speciesID int) error {
	if speciesID < 0 || speciesID >= len(p.Species) {
		return errors.Wrapf(ErrSpeciesNotFound, "index %d", speciesID)
	}
	return nil
}

// GetNumGenomesInSpecies returns the member count of species speciesID.
func (p *Population) GetNumGenomesInSpecies(speciesID int) (int, error) {
	if err := p.checkSpeciesIndex(speciesID); err != nil {
		return 0, err
	}
	return p.Species[speciesID].Size(), nil
}

// GetAverageFitnessOfSpecies returns the last-recomputed average
// fitness of species speciesID.
func (p *Population) GetAverageFitnessOfSpecies(speciesID int) (float64, error) {
	if err := p.checkSpeciesIndex(speciesID); err != nil {
		return 0, err
	}
	return p.Species[speciesID].AvgFitness, nil
}

// GetSpeciesIsAlive reports whether species speciesID is still active.
func (p *Population) GetSpeciesIsAlive(speciesID int) (bool, error) {
	if err := p.checkSpeciesIndex(speciesID); err != nil {
		return false, err
	}
	return p.Species[speciesID].Active, nil
}
