// Package complexity scores task descriptions across five fixed dimensions
// to decide whether a task needs collaborative handling. Scoring is a pure
// function of its inputs: no I/O, no shared state, same input always yields
// the same Score.
package complexity

import "errors"

// Dimension identifies one of the five fixed complexity axes.
type Dimension string

const (
	DimScope           Dimension = "scope"
	DimUncertainty     Dimension = "uncertainty"
	DimInterdependency Dimension = "interdependency"
	DimSkillDiversity  Dimension = "skill_diversity"
	DimRisk            Dimension = "risk"
)

// AllDimensions lists every dimension in canonical order. Every Score carries
// a value for each of them, defaulting to 0 when no signal is present.
var AllDimensions = []Dimension{
	DimScope,
	DimUncertainty,
	DimInterdependency,
	DimSkillDiversity,
	DimRisk,
}

// Per-dimension weights for the total score. They must sum to 1.0.
const (
	WeightScope           = 0.25
	WeightUncertainty     = 0.20
	WeightInterdependency = 0.20
	WeightSkillDiversity  = 0.15
	WeightRisk            = 0.20
)

// CollaborationThreshold is the total score above which a task requires
// collaborative (task force) handling.
const CollaborationThreshold = 0.55

// Weight returns the weight for the given dimension.
func Weight(d Dimension) float64 {
	switch d {
	case DimScope:
		return WeightScope
	case DimUncertainty:
		return WeightUncertainty
	case DimInterdependency:
		return WeightInterdependency
	case DimSkillDiversity:
		return WeightSkillDiversity
	case DimRisk:
		return WeightRisk
	}
	return 0
}

// Score is the result of scoring one task. It is a value object with no
// persistent identity.
type Score struct {
	Dimensions            map[Dimension]float64 `json:"dimensions"`
	TotalScore            float64               `json:"total_score"`
	RequiresCollaboration bool                  `json:"requires_collaboration"`
}

// ErrInvalidDescription indicates an empty or missing task description.
var ErrInvalidDescription = errors.New("invalid task description")

// ErrInvalidContext indicates a malformed structured task context.
var ErrInvalidContext = errors.New("invalid task context")
