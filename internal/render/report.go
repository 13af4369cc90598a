package render

import (
	"fmt"
	"strings"

	"github.com/rex-nihilo/chatlens/internal/config"
)

// Warning strings shown in the header when a selection set is empty.
const (
	warnNoPhases = "⚠️ No interaction selected. **You must select at least one interaction** (inlet|outlet|stream)"
	warnNoFields = "⚠️ No data selected. **You must select at least one field** (e.g.: summary, body, user, ...)"
	warnNoSinks  = "⚠️ No output selected. **You must select at least one output** (chat|console|file)"
)

// fenceRule is the fallback fence used when no markers are configured.
var fenceRule = strings.Repeat("_", 80)

// Section is one rendered data block of a report.
type Section struct {
	Label string // timestamp or item-count text shown in the section title
	Body  string // rendered JSON
	Size  int    // byte size of the underlying structure
}

// Report carries everything the renderer needs for one chat report.
type Report struct {
	ModelName     string
	Phases        []string // captured phases, for the header
	Fields        []string // shown fields, for the header
	FieldsNote    string   // non-empty replaces the Fields list (e.g. "Stream info only")
	Sinks         []string // active sinks, for the header
	Inlet         *Section // nil when inlet capture is disabled
	Outlet        *Section
	Stream        *Section
	MessageNumber int
}

// Renderer assembles the delimited multi-section report text.
type Renderer struct {
	cfg config.ReportConfig
}

// NewRenderer creates a report renderer.
func NewRenderer(cfg config.ReportConfig) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render builds the full report block: begin marker, header, one section per
// captured phase, footer, end marker. Sections for phases that were not
// captured are omitted entirely.
func (r *Renderer) Render(rep *Report) string {
	var b strings.Builder

	// Begin fence. The marker form is what the sanitizer strips later;
	// the underscore rule is a display-only fallback.
	if r.cfg.MarkerBegin != "" {
		b.WriteString("\n<br/><br/>" + r.cfg.MarkerBegin + "\n")
	} else {
		b.WriteString("\n" + fenceRule + "\n")
	}

	if r.cfg.Header {
		b.WriteString(r.renderHeader(rep))
	}

	total := 0
	for _, s := range []struct {
		title   string
		section *Section
	}{
		{r.cfg.TitleInlet, rep.Inlet},
		{r.cfg.TitleOutlet, rep.Outlet},
		{r.cfg.TitleStream, rep.Stream},
	} {
		if s.section == nil {
			continue
		}
		total += s.section.Size
		fmt.Fprintf(&b, "#### %s [%s] Size: %s\n```json\n%s\n```\n\n",
			s.title, s.section.Label, FormatSize(s.section.Size), s.section.Body)
	}

	if r.cfg.Footer {
		fmt.Fprintf(&b, "%s status OK\n- Report total size: %s\n- Message number: %d\n",
			r.cfg.TitleReport, FormatSize(total), rep.MessageNumber)
	}

	if r.cfg.MarkerEnd != "" {
		b.WriteString("\n" + r.cfg.MarkerEnd + "\n")
	} else {
		b.WriteString("\n" + fenceRule + "\n")
	}

	return b.String()
}

func (r *Renderer) renderHeader(rep *Report) string {
	phases := joinOrWarn(rep.Phases, warnNoPhases)

	fields := rep.FieldsNote
	if fields == "" {
		fields = joinOrWarn(rep.Fields, warnNoFields)
	}

	sinks := joinOrWarn(rep.Sinks, warnNoSinks)

	return fmt.Sprintf("## %s\n- Model: %s\n- Interaction: %s\n- Data: %s\n- Sent to: %s\n\n",
		r.cfg.TitleReport, rep.ModelName, phases, fields, sinks)
}

// joinOrWarn pipe-joins items, or returns the warning when none are set.
func joinOrWarn(items []string, warning string) string {
	if len(items) == 0 {
		return warning
	}
	return strings.Join(items, " | ")
}
