// Package budget allocates a finite line or token budget across
// competing content sections and reference files. Allocation favors
// important candidates, shrinks everything proportionally when the
// natural sizes oversubscribe the budget, and refuses (rather than
// silently violating) the documented floor of any mandatory section.
package budget

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Category classifies a candidate for importance weighting. Domain and
// workflow content weighs more than examples by design.
type Category string

const (
	CategoryDomain    Category = "domain"
	CategoryWorkflow  Category = "workflow"
	CategoryReference Category = "reference"
	CategoryTooling   Category = "tooling"
	CategoryExample   Category = "example"
)

var categoryWeights = map[Category]float64{
	CategoryDomain:    1.0,
	CategoryWorkflow:  1.0,
	CategoryReference: 0.7,
	CategoryTooling:   0.6,
	CategoryExample:   0.4,
}

// Candidate is one section or reference file competing for budget.
type Candidate struct {
	Name        string
	Category    Category
	NaturalSize int // estimated unconstrained size, in budget units
	Floor       int // minimum allocation for mandatory content; 0 = optional
	Ceiling     int // per-item hard cap; 0 = none

	// UsageBonus rewards content consumed by multiple pipeline phases;
	// GapBonus rewards content that fills an identified research gap.
	UsageBonus float64
	GapBonus   float64
}

// Importance is the candidate's priority: category weight plus bonuses.
func (c Candidate) Importance() float64 {
	weight, ok := categoryWeights[c.Category]
	if !ok {
		weight = 0.5
	}
	return weight + c.UsageBonus + c.GapBonus
}

// Allocation is the budget granted to one candidate.
type Allocation struct {
	Name      string
	Allocated int
	Natural   int
	Shrunk    bool
}

// Plan is the result of a full allocation pass.
type Plan struct {
	Total        int
	Allocations  []Allocation
	ShrinkFactor float64 // 1.0 when the natural sizes fit
}

// Allocated returns the total units granted across all allocations.
func (p Plan) Allocated() int {
	var sum int
	for _, a := range p.Allocations {
		sum += a.Allocated
	}
	return sum
}

// Get returns the allocation for a named candidate.
func (p Plan) Get(name string) (Allocation, bool) {
	for _, a := range p.Allocations {
		if a.Name == name {
			return a, true
		}
	}
	return Allocation{}, false
}

// InfeasibleError reports that even maximal compression cannot honor
// every mandatory floor. It is fatal for the current blueprint; the
// caller must redesign rather than retry.
type InfeasibleError struct {
	Total  int
	Floors int
	Detail string
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("budget infeasible: mandatory floors need %d units but only %d available (%s)",
		e.Floors, e.Total, e.Detail)
}

// ErrBudgetInfeasible is the sentinel matched by errors.Is for any
// infeasible allocation.
var ErrBudgetInfeasible = errors.New("budget infeasible")

// Unwrap lets errors.Is match ErrBudgetInfeasible.
func (e *InfeasibleError) Unwrap() error { return ErrBudgetInfeasible }

// Allocate distributes total units across the candidates.
//
// When the natural sizes (after per-item ceilings) fit, every candidate
// receives its natural size. When oversubscribed, every candidate is
// scaled by a single proportional shrink factor so the sum equals the
// budget exactly; mandatory floors are pinned first and the factor is
// recomputed over the remainder. Rounding remainders go to the most
// important candidates, and any residual overrun is taken from the
// least important unfloored candidates.
func Allocate(total int, candidates []Candidate) (Plan, error) {
	if total <= 0 {
		return Plan{}, errors.Errorf("budget: total must be positive, got %d", total)
	}
	if len(candidates) == 0 {
		return Plan{Total: total, ShrinkFactor: 1.0}, nil
	}

	var floorSum int
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if seen[c.Name] {
			return Plan{}, errors.Errorf("budget: duplicate candidate %q", c.Name)
		}
		seen[c.Name] = true
		if c.NaturalSize < 0 {
			return Plan{}, errors.Errorf("budget: candidate %q has negative natural size", c.Name)
		}
		if c.Floor > c.NaturalSize {
			return Plan{}, errors.Errorf("budget: candidate %q floor %d exceeds natural size %d",
				c.Name, c.Floor, c.NaturalSize)
		}
		if c.Ceiling > 0 && c.Floor > c.Ceiling {
			return Plan{}, errors.Errorf("budget: candidate %q floor %d exceeds ceiling %d",
				c.Name, c.Floor, c.Ceiling)
		}
		floorSum += c.Floor
	}
	if floorSum > total {
		return Plan{}, &InfeasibleError{
			Total:  total,
			Floors: floorSum,
			Detail: "sum of mandatory section floors exceeds the total budget",
		}
	}

	// Work on a copy sorted by importance descending; name breaks ties
	// so allocation is deterministic.
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Importance() != sorted[j].Importance() {
			return sorted[i].Importance() > sorted[j].Importance()
		}
		return sorted[i].Name < sorted[j].Name
	})

	capped := func(c Candidate, n int) int {
		if c.Ceiling > 0 && n > c.Ceiling {
			return c.Ceiling
		}
		return n
	}

	var naturalSum, cappedSum int
	for _, c := range sorted {
		naturalSum += c.NaturalSize
		cappedSum += capped(c, c.NaturalSize)
	}

	byName := make(map[string]int, len(sorted))

	if cappedSum <= total {
		// Everything fits once ceilings apply.
		for _, c := range sorted {
			byName[c.Name] = capped(c, c.NaturalSize)
		}
		return buildPlan(total, candidates, byName, 1.0), nil
	}

	factor := float64(total) / float64(naturalSum)

	// First pass: scale everything, pin floors.
	granted := 0
	pinned := make(map[string]bool, len(sorted))
	for _, c := range sorted {
		n := int(float64(c.NaturalSize) * factor)
		n = capped(c, n)
		if n < c.Floor {
			n = c.Floor
			pinned[c.Name] = true
		}
		byName[c.Name] = n
		granted += n
	}

	// Distribute any slack to the most important shrunk candidates.
	for i := 0; granted < total; {
		c := sorted[i%len(sorted)]
		if byName[c.Name] < capped(c, c.NaturalSize) {
			byName[c.Name]++
			granted++
		}
		i++
		if i > len(sorted)*total {
			break // every candidate is at its cap
		}
	}

	// Take any overrun (caused by pinned floors) from the least
	// important unpinned candidates, never below their floors.
	for i := len(sorted) - 1; granted > total && i >= 0; i-- {
		c := sorted[i]
		if pinned[c.Name] {
			continue
		}
		reducible := byName[c.Name] - c.Floor
		excess := granted - total
		if reducible > excess {
			reducible = excess
		}
		byName[c.Name] -= reducible
		granted -= reducible
	}

	if granted > total {
		return Plan{}, &InfeasibleError{
			Total:  total,
			Floors: floorSum,
			Detail: "floors leave no room for the remaining mandatory content",
		}
	}

	return buildPlan(total, candidates, byName, factor), nil
}

func buildPlan(total int, original []Candidate, byName map[string]int, factor float64) Plan {
	allocations := make([]Allocation, 0, len(original))
	for _, c := range original {
		got := byName[c.Name]
		allocations = append(allocations, Allocation{
			Name:      c.Name,
			Allocated: got,
			Natural:   c.NaturalSize,
			Shrunk:    got < c.NaturalSize,
		})
	}
	return Plan{Total: total, Allocations: allocations, ShrinkFactor: factor}
}
