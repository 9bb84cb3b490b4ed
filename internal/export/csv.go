package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Simplici0/auditdays/internal/store"
)

var csvHeader = []string{
	"id",
	"public_id",
	"created_at",
	"organization",
	"standard",
	"category",
	"audit_type",
	"employees",
	"sites",
	"haccp_studies",
	"risk_level",
	"integrated_standards",
	"raw_total",
	"total_man_days",
	"stage1",
	"stage2",
	"surveillance",
	"recertification",
	"config_version",
}

// WriteCSV writes one row per calculation, preceded by a header row.
func WriteCSV(w io.Writer, calculations []store.Calculation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, c := range calculations {
		stage1, stage2 := "", ""
		if sd := c.Result.StageDistribution; sd != nil {
			stage1, stage2 = strconv.Itoa(sd.Stage1), strconv.Itoa(sd.Stage2)
		}
		record := []string{
			strconv.FormatInt(c.ID, 10),
			c.PublicID,
			c.CreatedAt.UTC().Format(time.RFC3339),
			c.Organization,
			c.Input.Standard,
			c.Input.Category,
			string(c.Input.AuditType),
			strconv.Itoa(c.Input.Employees),
			strconv.Itoa(c.Input.Sites),
			strconv.Itoa(c.Input.HACCPStudies),
			c.Input.RiskLevel,
			strings.Join(c.Input.IntegratedStandards, ";"),
			days(c.Result.RawTotal),
			strconv.Itoa(c.Result.TotalManDays),
			stage1,
			stage2,
			strconv.Itoa(c.Result.SurveillanceManDays),
			strconv.Itoa(c.Result.RecertificationManDays),
			strconv.Itoa(c.ConfigVersion),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
