// Package mandays computes audit man-days from organizational parameters and a rate table.
package mandays

import (
	"fmt"
	"math"
)

// StandardFSMS is the only standard HACCP studies apply to.
const StandardFSMS = "FSMS"

// Fixed percentages of the rounded total used for derived audit figures.
const (
	stage1Share          = 0.3
	stage2Share          = 0.7
	surveillanceShare    = 0.33
	recertificationShare = 0.67
)

// MaxManDays bounds the raw total. Larger figures come from misconfigured multipliers.
const MaxManDays = 100000

// Breakdown holds the unrounded components whose sum is the raw total.
type Breakdown struct {
	BaseManDays                float64 `json:"baseManDays"`
	EmployeeAdjustment         float64 `json:"employeeAdjustment"`
	HACCPAdjustment            float64 `json:"haccpAdjustment"`
	RiskAdjustment             float64 `json:"riskAdjustment"`
	MultiSiteAdjustment        float64 `json:"multiSiteAdjustment"`
	IntegratedSystemAdjustment float64 `json:"integratedSystemAdjustment"`
}

// Sum returns the pre-floor total of all components.
func (b Breakdown) Sum() float64 {
	return b.BaseManDays + b.EmployeeAdjustment + b.HACCPAdjustment + b.RiskAdjustment +
		b.MultiSiteAdjustment + b.IntegratedSystemAdjustment
}

// StageDistribution splits an initial audit into its two stages.
// Stage1 + Stage2 may exceed the total because each stage is rounded up on its own.
type StageDistribution struct {
	Stage1 int `json:"stage1"`
	Stage2 int `json:"stage2"`
}

// Details carries display values describing how the result was obtained.
type Details struct {
	EmployeeRange      string  `json:"employeeRange"`
	CategoryLabel      string  `json:"categoryLabel"`
	RiskMultiplier     float64 `json:"riskMultiplier"`
	IntegratedFraction float64 `json:"integratedReduction"`
}

// Result is the outcome of a calculation.
type Result struct {
	TotalManDays           int                `json:"totalManDays"`
	RawTotal               float64            `json:"rawTotal"`
	Breakdown              Breakdown          `json:"breakdown"`
	StageDistribution      *StageDistribution `json:"stageDistribution,omitempty"`
	SurveillanceManDays    int                `json:"surveillanceManDays"`
	RecertificationManDays int                `json:"recertificationManDays"`
	Details                Details            `json:"details"`
}

// Clamped reports whether the floor of one day overrode a lower raw total.
func (r Result) Clamped() bool {
	return r.RawTotal < 1
}

// Compute calculates the audit man-days for input against cfg.
// It returns an error wrapping ErrInvalidCombination, ErrInvalidRiskLevel or ErrInvalidRange
// when cfg cannot serve input; no partial result is produced.
func Compute(input Input, cfg Configuration) (Result, error) {
	base, ok := cfg.BaseManDays[input.Standard][input.Category]
	if !ok || base <= 0 {
		return Result{}, fmt.Errorf("%w: %s/%s", ErrInvalidCombination, input.Standard, input.Category)
	}

	band, ok := findRange(cfg.EmployeeRanges, input.Employees)
	if !ok {
		return Result{}, fmt.Errorf("%w: %d employees", ErrInvalidRange, input.Employees)
	}

	riskMultiplier, ok := cfg.RiskMultipliers[input.RiskLevel]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidRiskLevel, input.RiskLevel)
	}

	haccp := 0.0
	if input.Standard == StandardFSMS {
		haccp = float64(input.HACCPStudies) * cfg.HACCPMultiplier
	}

	multiSite := 0.0
	if input.Sites > 1 {
		multiSite = float64(input.Sites-1) * cfg.MultiSiteMultiplier
	}

	fraction := 0.0
	for _, id := range uniqueIDs(input.IntegratedStandards) {
		fraction += cfg.integratedReduction(id)
	}

	breakdown := Breakdown{
		BaseManDays:                base,
		EmployeeAdjustment:         band.Adjustment,
		HACCPAdjustment:            haccp,
		RiskAdjustment:             base * (riskMultiplier - 1),
		MultiSiteAdjustment:        multiSite,
		IntegratedSystemAdjustment: -(base * fraction),
	}

	raw := breakdown.Sum()
	if !finite(raw) || raw > MaxManDays {
		return Result{}, fmt.Errorf("%w: raw total %v exceeds %d", ErrOutOfRange, raw, MaxManDays)
	}
	total := ceilDays(math.Max(1, raw))

	result := Result{
		TotalManDays:           total,
		RawTotal:               raw,
		Breakdown:              breakdown,
		SurveillanceManDays:    ceilDays(float64(total) * surveillanceShare),
		RecertificationManDays: ceilDays(float64(total) * recertificationShare),
		Details: Details{
			EmployeeRange:      band.Description,
			CategoryLabel:      categoryLabel(cfg, input.Standard, input.Category),
			RiskMultiplier:     riskMultiplier,
			IntegratedFraction: fraction,
		},
	}
	if input.AuditType == AuditInitial {
		result.StageDistribution = &StageDistribution{
			Stage1: max(1, ceilDays(float64(total)*stage1Share)),
			Stage2: ceilDays(float64(total) * stage2Share),
		}
	}

	return result, nil
}

func findRange(ranges []EmployeeRange, employees int) (EmployeeRange, bool) {
	for _, r := range sortedRanges(ranges) {
		if r.Contains(employees) {
			return r, true
		}
	}
	return EmployeeRange{}, false
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func categoryLabel(cfg Configuration, standard, category string) string {
	label := category
	if desc := cfg.CategoryDescription(category); desc != "" {
		label = category + " - " + desc
	}
	return fmt.Sprintf("%s (%s)", label, cfg.StandardName(standard))
}
