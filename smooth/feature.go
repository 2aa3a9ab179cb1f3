package smooth

import "fmt"

// FeatureMode selects which surface features a smoothing stage relaxes
type FeatureMode uint8

const (
	ExtTriple FeatureMode = iota // Triple lines on the domain exterior
	IntTriple                    // Triple lines inside the domain
	Bound                        // Grain boundary surfaces, with pinned nodes
)

// DefaultStages is the stage order of a full smoothing run. Each stage starts
// from the positions produced by the previous one.
var DefaultStages = []FeatureMode{ExtTriple, IntTriple, Bound}

func NewFeatureMode(label string) (FeatureMode, error) {
	switch label {
	case "ext_triple":
		return ExtTriple, nil
	case "int_triple":
		return IntTriple, nil
	case "bound":
		return Bound, nil
	default:
		return 0, fmt.Errorf("unknown feature mode %q", label)
	}
}

func (m FeatureMode) String() string {
	return [...]string{"ext_triple", "int_triple", "bound"}[m]
}

// FeatureCodes maps node type codes to node weights for the triple line
// stages and lists the codes that are fully pinned during the boundary stage.
// Codes missing from a weight map weigh 0.
type FeatureCodes struct {
	ExtTriple map[int]float64 `json:"ExtTriple"`
	IntTriple map[int]float64 `json:"IntTriple"`
	Pinned    []int           `json:"Pinned"`
}

// DefaultFeatureCodes returns the node type codes of the surface mesher
func DefaultFeatureCodes() FeatureCodes {
	return FeatureCodes{
		ExtTriple: map[int]float64{13: 1, 14: 2},
		IntTriple: map[int]float64{3: 1, 4: 2},
		Pinned:    []int{2, 12},
	}
}

// NodeWeights returns the weight of every node for a stage. Bound weighs all
// nodes 1.
func (fc FeatureCodes) NodeWeights(mode FeatureMode, types []int) []float64 {
	w := make([]float64, len(types))
	switch mode {
	case ExtTriple, IntTriple:
		codes := fc.ExtTriple
		if mode == IntTriple {
			codes = fc.IntTriple
		}
		for i, t := range types {
			w[i] = codes[t]
		}
	default:
		for i := range w {
			w[i] = 1
		}
	}
	return w
}

// IsPinned reports whether a node type is fixed during the boundary stage
func (fc FeatureCodes) IsPinned(nodeType int) bool {
	for _, p := range fc.Pinned {
		if p == nodeType {
			return true
		}
	}
	return false
}
