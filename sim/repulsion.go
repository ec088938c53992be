package sim

import (
	"fmt"
	"math"
)

// RepulsionDecay names the shape of the repulsion penalty.
type RepulsionDecay string

const (
	// DecayGaussian is Strength * exp(-r²/Scale²).
	DecayGaussian RepulsionDecay = "gaussian"
	// DecayRadial is Strength * exp(Radius² - r²). Its magnitude is dominated
	// by Radius, so pick a small Strength.
	DecayRadial RepulsionDecay = "radial"
)

// ValidRepulsionDecays is the set of recognized decay names ("" means gaussian).
var ValidRepulsionDecays = map[RepulsionDecay]bool{"": true, DecayGaussian: true, DecayRadial: true}

// Validate checks parameter ranges. A disabled config is always valid.
func (rc RepulsionConfig) Validate() error {
	if !rc.Enabled {
		return nil
	}
	if !ValidRepulsionDecays[rc.Decay] {
		return fmt.Errorf("unknown repulsion decay %q", rc.Decay)
	}
	if rc.Radius <= 0 {
		return fmt.Errorf("repulsion radius must be positive, got %f", rc.Radius)
	}
	if rc.Strength < 0 {
		return fmt.Errorf("repulsion strength must be non-negative, got %f", rc.Strength)
	}
	if (rc.Decay == "" || rc.Decay == DecayGaussian) && rc.Scale <= 0 {
		return fmt.Errorf("repulsion scale must be positive, got %f", rc.Scale)
	}
	return nil
}

// Penalty returns the cost added to a cell at distance r (cells) from another pedestrian.
func (rc RepulsionConfig) Penalty(r float64) float64 {
	if !rc.Enabled || r >= rc.Radius {
		return 0
	}
	switch rc.Decay {
	case DecayRadial:
		return rc.Strength * math.Exp(rc.Radius*rc.Radius-r*r)
	default:
		return rc.Strength * math.Exp(-(r*r)/(rc.Scale*rc.Scale))
	}
}

// repulsionAt sums the penalties other active pedestrians impose on cell p.
func (s *Simulation) repulsionAt(p Position, self int) float64 {
	if !s.cfg.Repulsion.Enabled {
		return 0
	}
	total := 0.0
	for _, other := range s.active {
		if other.ID == self || other.Arrived {
			continue
		}
		total += s.cfg.Repulsion.Penalty(EuclideanDistance(p, other.Pos))
	}
	return total
}
