package mandays

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strings"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestCompute_HACCPCountsEveryStudy(t *testing.T) {
	cfg := DefaultConfiguration()
	in := fsmsInput()

	for _, studies := range []int{0, 1, 3} {
		in.HACCPStudies = studies
		result, err := Compute(in, cfg)
		if err != nil {
			t.Fatalf("Compute(%d studies) error: %v", studies, err)
		}
		nearlyEqual(t, "haccpAdjustment", result.Breakdown.HACCPAdjustment, float64(studies)*cfg.HACCPMultiplier)
	}
}

func TestCeilDays_IgnoresFloatingNoise(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{10 * 0.3, 3},
		{10 * 0.7, 7},
		{11 * 0.3, 4},
		{0.1 + 0.2 + 0.7, 1},
		{1.0000001, 1},
		{1.000001, 2},
		{-3.2, -3},
	}
	for _, tt := range tests {
		if got := ceilDays(tt.in); got != tt.want {
			t.Fatalf("ceilDays(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestValidate_RejectsNonFiniteNumbers(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)

	tests := []struct {
		name   string
		mutate func(*Configuration)
		want   string
	}{
		{"base", func(c *Configuration) { c.BaseManDays["QMS"]["A"] = nan }, "baseManDays[QMS][A]"},
		{"band", func(c *Configuration) { c.EmployeeRanges[0].Adjustment = inf }, "adjustment must be a number"},
		{"risk", func(c *Configuration) { c.RiskMultipliers["high"] = inf }, "riskMultipliers[high]"},
		{"haccp nan", func(c *Configuration) { c.HACCPMultiplier = nan }, "haccpMultiplier"},
		{"haccp inf", func(c *Configuration) { c.HACCPMultiplier = inf }, "haccpMultiplier"},
		{"multi-site", func(c *Configuration) { c.MultiSiteMultiplier = math.Inf(-1) }, "multiSiteMultiplier"},
		{"integrated", func(c *Configuration) { c.IntegratedSystemReduction = nan }, "integratedSystemReduction"},
		{"integrated standard", func(c *Configuration) { c.IntegratedStandards[0].Reduction = nan }, "reduction must be between 0 and 1"},
	}
	for _, tt := range tests {
		cfg := DefaultConfiguration()
		tt.mutate(&cfg)

		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: Validate() = nil, want error", tt.name)
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%s: Validate() = %q, want it to mention %q", tt.name, err, tt.want)
		}
	}
}

func TestParseTOML_RejectsNaNMultiplier(t *testing.T) {
	var buf strings.Builder
	if err := WriteTOML(&buf, DefaultConfiguration()); err != nil {
		t.Fatalf("WriteTOML error: %v", err)
	}
	line := regexp.MustCompile(`(?m)^haccp_multiplier = .*$`)
	if !line.MatchString(buf.String()) {
		t.Fatalf("encoded defaults have no haccp_multiplier line:\n%s", buf.String())
	}

	for _, v := range []string{"nan", "inf", "-inf"} {
		doc := line.ReplaceAllString(buf.String(), "haccp_multiplier = "+v)
		if _, err := ParseTOML(doc); !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("ParseTOML(haccp_multiplier = %s) error = %v, want ErrInvalidConfiguration", v, err)
		}
	}
}

func TestCompute_OverflowingMultiplierIsAnError(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.HACCPMultiplier = 1e308

	doc, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := ParseJSON(doc)
	if err != nil {
		t.Fatalf("ParseJSON error: %v", err)
	}

	result, err := Compute(fsmsInput(), parsed)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Compute error = %v, want ErrOutOfRange", err)
	}
	if result.TotalManDays != 0 {
		t.Fatalf("Compute returned a partial result: %+v", result)
	}
}

func TestCompute_RejectsTotalAboveLimit(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.MultiSiteMultiplier = MaxManDays

	in := fsmsInput()
	in.Sites = 3
	if _, err := Compute(in, cfg); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Compute error = %v, want ErrOutOfRange", err)
	}

	in.Sites = 1
	result, err := Compute(in, cfg)
	if err != nil {
		t.Fatalf("Compute with one site error: %v", err)
	}
	nearlyEqual(t, "multiSiteAdjustment", result.Breakdown.MultiSiteAdjustment, 0)
}
