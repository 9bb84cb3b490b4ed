package mandays

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
)

// EmployeeRange is a contiguous band of employee counts mapped to a fixed day adjustment.
// A Max of zero means the band has no upper bound.
type EmployeeRange struct {
	Min         int     `json:"min" toml:"min"`
	Max         int     `json:"max" toml:"max"`
	Adjustment  float64 `json:"adjustment" toml:"adjustment"`
	Description string  `json:"description" toml:"description"`
	Order       int     `json:"order" toml:"order"`
}

// Unbounded reports whether the band extends to +infinity.
func (r EmployeeRange) Unbounded() bool {
	return r.Max == 0
}

// Contains reports whether employees falls inside the band, both ends inclusive.
func (r EmployeeRange) Contains(employees int) bool {
	if employees < r.Min {
		return false
	}
	return r.Unbounded() || employees <= r.Max
}

// IntegratedStandard is a management system audited jointly with the primary one.
type IntegratedStandard struct {
	ID        string  `json:"id" toml:"id"`
	Name      string  `json:"name" toml:"name"`
	Reduction float64 `json:"reduction" toml:"reduction"`
	Order     int     `json:"order" toml:"order"`
}

// Standard holds the display name of a standard key used in baseManDays.
type Standard struct {
	Code  string `json:"code" toml:"code"`
	Name  string `json:"name" toml:"name"`
	Order int    `json:"order" toml:"order"`
}

// Category holds the display description of a category code.
type Category struct {
	Code        string `json:"code" toml:"code"`
	Description string `json:"description" toml:"description"`
	Order       int    `json:"order" toml:"order"`
}

// Configuration is the rate table snapshot a calculation runs against.
// Compute never mutates it, so a single value may be shared by concurrent callers.
type Configuration struct {
	Version                   int                           `json:"version" toml:"version"`
	BaseManDays               map[string]map[string]float64 `json:"baseManDays" toml:"base_man_days"`
	EmployeeRanges            []EmployeeRange               `json:"employeeRanges" toml:"employee_ranges"`
	RiskMultipliers           map[string]float64            `json:"riskMultipliers" toml:"risk_multipliers"`
	HACCPMultiplier           float64                       `json:"haccpMultiplier" toml:"haccp_multiplier"`
	MultiSiteMultiplier       float64                       `json:"multiSiteMultiplier" toml:"multi_site_multiplier"`
	IntegratedSystemReduction float64                       `json:"integratedSystemReduction" toml:"integrated_system_reduction"`
	IntegratedStandards       []IntegratedStandard          `json:"integratedStandards" toml:"integrated_standards"`
	Standards                 []Standard                    `json:"standards,omitempty" toml:"standards"`
	Categories                []Category                    `json:"categories,omitempty" toml:"categories"`
}

// ConfigError lists every integrity problem found in a Configuration.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Is makes errors.Is(err, ErrInvalidConfiguration) match.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// Validate checks the configuration for integrity. It is meant to run when a configuration
// is loaded or saved, not on every calculation.
func (c Configuration) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(c.BaseManDays) == 0 {
		add("baseManDays must define at least one standard")
	}
	for _, standard := range slices.Sorted(maps.Keys(c.BaseManDays)) {
		if strings.TrimSpace(standard) == "" {
			add("baseManDays contains an empty standard key")
		}
		for _, category := range slices.Sorted(maps.Keys(c.BaseManDays[standard])) {
			if v := c.BaseManDays[standard][category]; !finite(v) || v < 0 {
				add("baseManDays[%s][%s] must be >= 0, got %v", standard, category, v)
			}
		}
	}

	problems = append(problems, validateRanges(c.EmployeeRanges)...)

	if len(c.RiskMultipliers) == 0 {
		add("riskMultipliers must define at least one risk level")
	}
	for _, level := range slices.Sorted(maps.Keys(c.RiskMultipliers)) {
		if v := c.RiskMultipliers[level]; !finite(v) || v <= 0 {
			add("riskMultipliers[%s] must be > 0, got %v", level, v)
		}
	}

	if !finite(c.HACCPMultiplier) || c.HACCPMultiplier < 0 {
		add("haccpMultiplier must be >= 0, got %v", c.HACCPMultiplier)
	}
	if !finite(c.MultiSiteMultiplier) || c.MultiSiteMultiplier < 0 {
		add("multiSiteMultiplier must be >= 0, got %v", c.MultiSiteMultiplier)
	}
	if !unitInterval(c.IntegratedSystemReduction) {
		add("integratedSystemReduction must be between 0 and 1, got %v", c.IntegratedSystemReduction)
	}

	seen := make(map[string]bool, len(c.IntegratedStandards))
	for i, s := range c.IntegratedStandards {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			add("integratedStandards[%d] has an empty id", i)
			continue
		}
		if seen[id] {
			add("integratedStandards id %q is duplicated", id)
		}
		seen[id] = true
		if !unitInterval(s.Reduction) {
			add("integratedStandards[%s] reduction must be between 0 and 1, got %v", id, s.Reduction)
		}
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

func validateRanges(ranges []EmployeeRange) []string {
	if len(ranges) == 0 {
		return []string{"employeeRanges must define at least one band"}
	}

	var problems []string
	sorted := sortedRanges(ranges)
	if sorted[0].Min != 1 {
		problems = append(problems, fmt.Sprintf("employeeRanges must start at 1, first band starts at %d", sorted[0].Min))
	}
	for i, r := range sorted {
		last := i == len(sorted)-1
		if !finite(r.Adjustment) || r.Adjustment < 0 {
			problems = append(problems, fmt.Sprintf("employee band %s adjustment must be a number >= 0", rangeLabel(r)))
		}
		if r.Unbounded() {
			if !last {
				problems = append(problems, fmt.Sprintf("employee band %s is unbounded but is not the last band", rangeLabel(r)))
			}
			continue
		}
		if r.Max < r.Min {
			problems = append(problems, fmt.Sprintf("employee band %s has max below min", rangeLabel(r)))
		}
		if last {
			problems = append(problems, fmt.Sprintf("last employee band %s must be unbounded (max 0)", rangeLabel(r)))
			continue
		}
		if next := sorted[i+1]; next.Min != r.Max+1 {
			problems = append(problems, fmt.Sprintf("employee bands %s and %s are not contiguous", rangeLabel(r), rangeLabel(next)))
		}
	}
	return problems
}

// finite rejects NaN and the infinities, which slip through ordered comparisons.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func unitInterval(v float64) bool {
	return v >= 0 && v <= 1
}

func rangeLabel(r EmployeeRange) string {
	if r.Unbounded() {
		return fmt.Sprintf("%d+", r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// sortedRanges orders bands by their evaluation key. The display Order field is ignored.
func sortedRanges(ranges []EmployeeRange) []EmployeeRange {
	sorted := slices.Clone(ranges)
	slices.SortStableFunc(sorted, func(a, b EmployeeRange) int {
		return a.Min - b.Min
	})
	return sorted
}

// Clone returns a deep copy, for callers that need to edit a snapshot.
func (c Configuration) Clone() Configuration {
	out := c
	out.BaseManDays = make(map[string]map[string]float64, len(c.BaseManDays))
	for standard, categories := range c.BaseManDays {
		out.BaseManDays[standard] = maps.Clone(categories)
	}
	out.RiskMultipliers = maps.Clone(c.RiskMultipliers)
	out.EmployeeRanges = slices.Clone(c.EmployeeRanges)
	out.IntegratedStandards = slices.Clone(c.IntegratedStandards)
	out.Standards = slices.Clone(c.Standards)
	out.Categories = slices.Clone(c.Categories)
	return out
}

// StandardCodes returns the configured standard keys in display order.
func (c Configuration) StandardCodes() []string {
	codes := slices.Sorted(maps.Keys(c.BaseManDays))
	order := make(map[string]int, len(c.Standards))
	for _, s := range c.Standards {
		order[s.Code] = s.Order
	}
	slices.SortStableFunc(codes, func(a, b string) int {
		return order[a] - order[b]
	})
	return codes
}

// StandardName returns the display name for a standard key, falling back to the key.
func (c Configuration) StandardName(code string) string {
	for _, s := range c.Standards {
		if s.Code == code && s.Name != "" {
			return s.Name
		}
	}
	return code
}

// CategoryDescription returns the display description for a category code, if any.
func (c Configuration) CategoryDescription(code string) string {
	for _, cat := range c.Categories {
		if cat.Code == code {
			return cat.Description
		}
	}
	return ""
}

// RiskLevels returns the configured risk keys ordered by their multiplier.
func (c Configuration) RiskLevels() []string {
	levels := slices.Sorted(maps.Keys(c.RiskMultipliers))
	slices.SortStableFunc(levels, func(a, b string) int {
		switch ma, mb := c.RiskMultipliers[a], c.RiskMultipliers[b]; {
		case ma < mb:
			return -1
		case ma > mb:
			return 1
		}
		return 0
	})
	return levels
}

// SortedIntegratedStandards returns integrated standards in display order.
func (c Configuration) SortedIntegratedStandards() []IntegratedStandard {
	out := slices.Clone(c.IntegratedStandards)
	slices.SortStableFunc(out, func(a, b IntegratedStandard) int {
		return a.Order - b.Order
	})
	return out
}

// SortedCategories returns categories in display order.
func (c Configuration) SortedCategories() []Category {
	out := slices.Clone(c.Categories)
	slices.SortStableFunc(out, func(a, b Category) int {
		return a.Order - b.Order
	})
	return out
}

func (c Configuration) integratedReduction(id string) float64 {
	for _, s := range c.IntegratedStandards {
		if s.ID == id || strings.EqualFold(s.Name, id) {
			return s.Reduction
		}
	}
	return c.IntegratedSystemReduction
}

// ParseJSON decodes and validates a configuration document. Unknown fields are rejected.
func ParseJSON(data []byte) (Configuration, error) {
	var cfg Configuration
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Configuration{}, fmt.Errorf("decode configuration json: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}
