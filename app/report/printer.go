// Package report renders a reconciliation report for the console.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/dto"
)

const width = 60

// Print writes the counts first, then the rows that need attention and
// finally the rows that were fixed.
func Print(w io.Writer, r *dto.Report) error {
	p := &printer{w: w}

	p.line("")
	p.line(strings.Repeat("=", width))
	p.line("SUMMARY (run %s)", r.RunID)
	p.line(strings.Repeat("=", width))
	p.line("Fixed emails: %d", len(r.Fixed))
	p.line("Invalid emails (need manual fix): %d", len(r.Invalid))
	p.line("Skipped emails: %d", len(r.Skipped))
	if len(r.Failed) > 0 {
		p.line("Failed rows (unexpected error): %d", len(r.Failed))
	}

	if len(r.Invalid) > 0 {
		p.section("Invalid emails that need manual fix:")
		for i, o := range r.Invalid {
			p.line("")
			p.line("%d. Table: %s", i+1, o.Table)
			p.line("   ID: %d", o.ID)
			p.line("   Name: %s", o.Name)
			p.line("   Email: %s", storedEmail(o))
			if o.Reason != "" {
				p.line("   Reason: %s", o.Reason)
			}
			for _, issue := range o.Errors {
				p.line("   Error: %s (%s)", issue.Message, issue.Code)
			}
		}
	}

	if len(r.Skipped) > 0 {
		p.section("Skipped emails:")
		for i, o := range r.Skipped {
			p.line("%d. Table: %s, ID: %d, Name: %s (%s)", i+1, o.Table, o.ID, o.Name, o.Reason)
		}
	}

	if len(r.Failed) > 0 {
		p.section("Rows that failed with an unexpected error:")
		for i, o := range r.Failed {
			p.line("%d. Table: %s, ID: %d, Email: %s", i+1, o.Table, o.ID, storedEmail(o))
		}
	}

	if len(r.Fixed) > 0 {
		p.section("Successfully fixed emails:")
		for i, o := range r.Fixed {
			p.line("%d. Table: %s, ID: %d", i+1, o.Table, o.ID)
			p.line("   %q -> %q", o.Old, o.New)
		}
	}

	p.line("")
	p.line(strings.Repeat("=", width))
	p.line("Process completed in %s", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))

	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) section(title string) {
	p.line("")
	p.line(title)
	p.line(strings.Repeat("-", width))
}

func storedEmail(o dto.Outcome) string {
	if o.Email == nil {
		return "<null>"
	}
	return fmt.Sprintf("%q", *o.Email)
}
