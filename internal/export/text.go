package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/Simplici0/auditdays/internal/store"
)

// WriteText writes a plain-text summary of c suitable for pasting into an email.
func WriteText(w io.Writer, c store.Calculation) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Audit man-day calculation #%d\n", c.ID)
	fmt.Fprintf(&b, "Created: %s (configuration v%d)\n\n", formatDate(c.CreatedAt), c.ConfigVersion)

	fmt.Fprintf(&b, "Total: %d man-days\n", c.Result.TotalManDays)
	if c.Result.Clamped() {
		b.WriteString("Raw total was below one day; the minimum of 1 applies.\n")
	}
	b.WriteString("\n")

	writeSection(&b, "Audit data:", inputRows(c))
	writeSection(&b, "Breakdown:", breakdownRows(c.Result))
	writeSection(&b, "Schedule:", scheduleRows(c.Result))

	if notes := strings.TrimSpace(c.Notes); notes != "" {
		b.WriteString("Notes:\n")
		b.WriteString(notes)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSection(b *strings.Builder, title string, rows []row) {
	b.WriteString(title)
	b.WriteString("\n")
	for _, r := range rows {
		fmt.Fprintf(b, "- %s: %s\n", r.Label, r.Value)
	}
	b.WriteString("\n")
}
