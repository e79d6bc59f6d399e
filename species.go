package neat

import "gonum.org/v1/gonum/stat"

// Species is an ordered bag of genome indices into the owning
// Population's genome array, plus fitness/stagnation bookkeeping. It
// holds no owning references to genomes, only indices, so it survives
// genome replacement.
type Species struct {
	// GenomeIDs is ordered; GenomeIDs[0] is the representant, fixed
	// until the species is reseeded by Cull.
	GenomeIDs []int

	AvgFitness    float64
	MaxAvgFitness float64

	Generation               int
	GenerationWithMaxFitness int
	TimesStagnated           int

	Active bool
}

// NewSpecies returns an empty, active species with genome-id capacity
// preallocated to the population size.
func NewSpecies(cfg Config) *Species {
	return &Species{
		GenomeIDs: make([]int, 0, cfg.PopulationSize),
		Active:    true,
	}
}

// AddGenome appends id (the caller must ensure it is not already a
// member) and resets the species' stagnation window, since gaining a
// member is evidence the species is not a dead end.
func (s *Species) AddGenome(id int) {
	s.GenomeIDs = append(s.GenomeIDs, id)
	s.TimesStagnated = 0
	s.GenerationWithMaxFitness = s.Generation
}

// RemoveGenomeIfExists removes id via swap-remove and reports whether
// it was present.
func (s *Species) RemoveGenomeIfExists(id int) bool {
	for i, gid := range s.GenomeIDs {
		if gid == id {
			last := len(s.GenomeIDs) - 1
			s.GenomeIDs[i] = s.GenomeIDs[last]
			s.GenomeIDs = s.GenomeIDs[:last]
			return true
		}
	}
	return false
}

// ContainsGenome reports whether id is a current member.
func (s *Species) ContainsGenome(id int) bool {
	for _, gid := range s.GenomeIDs {
		if gid == id {
			return true
		}
	}
	return false
}

// Representant returns the species' fixed representant genome id.
func (s *Species) Representant() int {
	return s.GenomeIDs[0]
}

// Size returns the number of member genomes.
func (s *Species) Size() int {
	return len(s.GenomeIDs)
}

// AdjustedFitness divides raw fitness by species size, penalizing
// large species (fitness sharing).
func (s *Species) AdjustedFitness(raw float64) float64 {
	return raw / float64(len(s.GenomeIDs))
}

// UpdateAverageFitness recomputes AvgFitness from the current member
// genomes' raw fitness, and records a new stagnation-free generation
// if it improves on the running maximum.
func (s *Species) UpdateAverageFitness(pop *Population) {
	if len(s.GenomeIDs) == 0 {
		s.AvgFitness = 0
		return
	}
	fitnesses := make([]float64, len(s.GenomeIDs))
	for i, id := range s.GenomeIDs {
		fitnesses[i] = pop.Genomes[id].Fitness
	}
	s.AvgFitness = stat.Mean(fitnesses, nil)

	if s.AvgFitness > s.MaxAvgFitness {
		s.MaxAvgFitness = s.AvgFitness
		s.GenerationWithMaxFitness = s.Generation
	}
}

// SelectBest returns the id of the member with the highest raw
// fitness (ties keep the first occurrence).
func (s *Species) SelectBest(pop *Population) int {
	best := s.GenomeIDs[0]
	bestFitness := pop.Genomes[best].Fitness
	for _, id := range s.GenomeIDs[1:] {
		if pop.Genomes[id].Fitness > bestFitness {
			best = id
			bestFitness = pop.Genomes[id].Fitness
		}
	}
	return best
}

// SelectSecondBest returns the id of the runner-up by raw fitness, or
// the lone genome if the species has only one member. The single pass
// tracks the top two members, so with two or more members the result
// is always distinct from the genome SelectBest returns.
func (s *Species) SelectSecondBest(pop *Population) int {
	if len(s.GenomeIDs) == 1 {
		return s.GenomeIDs[0]
	}

	first, second := s.GenomeIDs[0], s.GenomeIDs[1]
	if pop.Genomes[second].Fitness > pop.Genomes[first].Fitness {
		first, second = second, first
	}
	for _, id := range s.GenomeIDs[2:] {
		f := pop.Genomes[id].Fitness
		if f > pop.Genomes[first].Fitness {
			first, second = id, first
		} else if f > pop.Genomes[second].Fitness {
			second = id
		}
	}
	return second
}

// IncreaseGeneration advances the species' generation counter.
func (s *Species) IncreaseGeneration() {
	s.Generation++
}

// Cull checks the species for stagnation: if its best average fitness
// hasn't improved in more than cfg.SpeciesStagnationThreshold
// generations, it counts a stagnation. Past
// cfg.SpeciesStagnationsAllowed stagnations the species is
// deactivated permanently; otherwise it is reseeded by copying its
// first genome over every member.
func (s *Species) Cull(pop *Population, cfg Config) {
	if s.Generation-s.GenerationWithMaxFitness <= cfg.SpeciesStagnationThreshold {
		return
	}

	s.TimesStagnated++
	if s.TimesStagnated > cfg.SpeciesStagnationsAllowed {
		s.Active = false
		return
	}

	s.MaxAvgFitness = 0
	s.GenerationWithMaxFitness = s.Generation

	if len(s.GenomeIDs) == 0 {
		return
	}
	champion := pop.Genomes[s.GenomeIDs[0]]
	for _, id := range s.GenomeIDs[1:] {
		pop.Genomes[id] = champion.Copy()
	}
}
