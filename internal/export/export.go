// Package export renders stored calculations as plain text, CSV and PDF documents.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Simplici0/auditdays/internal/mandays"
	"github.com/Simplici0/auditdays/internal/store"
)

// Formats
const (
	FormatText = "text"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

// row is one labelled line of a calculation summary, shared by the text and PDF renderers.
type row struct {
	Label string
	Value string
}

func inputRows(c store.Calculation) []row {
	rows := []row{
		{"Organization", orDash(c.Organization)},
		{"Standard", c.Input.Standard},
		{"Category", orDash(c.Result.Details.CategoryLabel)},
		{"Audit type", string(c.Input.AuditType)},
		{"Employees", strconv.Itoa(c.Input.Employees)},
		{"Employee range", c.Result.Details.EmployeeRange},
		{"Sites", strconv.Itoa(c.Input.Sites)},
		{"Risk level", c.Input.RiskLevel},
	}
	if c.Input.Standard == mandays.StandardFSMS {
		rows = append(rows, row{"HACCP studies", strconv.Itoa(c.Input.HACCPStudies)})
	}
	if len(c.Input.IntegratedStandards) > 0 {
		rows = append(rows, row{"Integrated standards", strings.Join(c.Input.IntegratedStandards, ", ")})
	}
	return rows
}

func breakdownRows(r mandays.Result) []row {
	b := r.Breakdown
	return []row{
		{"Base man-days", days(b.BaseManDays)},
		{"Employee adjustment", signedDays(b.EmployeeAdjustment)},
		{"HACCP adjustment", signedDays(b.HACCPAdjustment)},
		{"Risk adjustment", signedDays(b.RiskAdjustment)},
		{"Multi-site adjustment", signedDays(b.MultiSiteAdjustment)},
		{"Integrated system adjustment", signedDays(b.IntegratedSystemAdjustment)},
		{"Raw total", days(r.RawTotal)},
	}
}

func scheduleRows(r mandays.Result) []row {
	rows := []row{{"Total man-days", strconv.Itoa(r.TotalManDays)}}
	if r.StageDistribution != nil {
		rows = append(rows,
			row{"Stage 1", strconv.Itoa(r.StageDistribution.Stage1)},
			row{"Stage 2", strconv.Itoa(r.StageDistribution.Stage2)},
		)
	}
	return append(rows,
		row{"Surveillance", strconv.Itoa(r.SurveillanceManDays)},
		row{"Recertification", strconv.Itoa(r.RecertificationManDays)},
	)
}

func days(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func signedDays(v float64) string {
	if v > 0 {
		return "+" + days(v)
	}
	return days(v)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

// Filename returns the download name for a calculation export.
func Filename(c store.Calculation, ext string) string {
	return fmt.Sprintf("calculation-%d.%s", c.ID, ext)
}
