package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/spektr-org/simstat/analysis"
	"github.com/spektr-org/simstat/engine"
)

// ============================================================================
// CONSOLE: colored report printer
// ============================================================================

const wrapWidth = 78

// Console prints reports as headed sections with tables and wrapped text.
type Console struct {
	w       io.Writer
	title   *color.Color
	heading *color.Color
	note    *color.Color
	warn    *color.Color
}

// NewConsole returns a printer writing to w. Without useColor every
// escape sequence is suppressed.
func NewConsole(w io.Writer, useColor bool) *Console {
	c := &Console{
		w:       w,
		title:   color.New(color.FgCyan, color.Bold),
		heading: color.New(color.FgYellow, color.Bold),
		note:    color.New(color.FgGreen),
		warn:    color.New(color.FgRed),
	}
	for _, col := range []*color.Color{c.title, c.heading, c.note, c.warn} {
		if useColor {
			col.EnableColor()
		} else {
			col.DisableColor()
		}
	}
	return c
}

// Header prints the program banner.
func (c *Console) Header(title, source string) {
	c.title.Fprintln(c.w, title)
	if source != "" {
		fmt.Fprintln(c.w, "Source: "+source)
	}
	fmt.Fprintln(c.w, strings.Repeat("-", 61))
}

// Section prints a section heading.
func (c *Console) Section(title string) {
	fmt.Fprintln(c.w)
	c.heading.Fprintln(c.w, title)
}

// Warn prints a highlighted warning line.
func (c *Console) Warn(format string, args ...interface{}) {
	c.warn.Fprintf(c.w, format+"\n", args...)
}

// Note prints a highlighted informational line.
func (c *Console) Note(format string, args ...interface{}) {
	c.note.Fprintf(c.w, format+"\n", args...)
}

// Paragraph prints text wrapped to the console width, keeping line breaks.
func (c *Console) Paragraph(text string) {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			fmt.Fprintln(c.w)
			continue
		}
		wrapped, _ := tablewriter.WrapString(line, wrapWidth)
		for _, l := range wrapped {
			fmt.Fprintln(c.w, l)
		}
	}
}

// Report prints one analysis report.
func (c *Console) Report(r *analysis.Report) {
	c.Section(r.Title)
	if r.Description != "" {
		c.Paragraph(r.Description)
	}
	if r.Before != nil {
		fmt.Fprintln(c.w)
		c.heading.Fprintln(c.w, r.Before.Title)
		c.Table(r.Before)
	}
	if r.Table != nil {
		fmt.Fprintln(c.w)
		c.Table(r.Table)
	}
	if r.Stats != nil && r.Stats.Classes > 1 {
		fmt.Fprintln(c.w, StatsLine(*r.Stats))
	}
	if r.Summary != "" {
		fmt.Fprintln(c.w)
		c.note.Fprintln(c.w, r.Summary)
	}
	for _, o := range r.Observations {
		wrapped, _ := tablewriter.WrapString(o, wrapWidth-2)
		for i, l := range wrapped {
			prefix := "  "
			if i == 0 {
				prefix = "• "
			}
			fmt.Fprintln(c.w, prefix+l)
		}
	}
}

// Table prints engine table data with a total footer.
func (c *Console) Table(t *engine.TableData) {
	if t == nil || len(t.Columns) == 0 {
		return
	}
	table := tablewriter.NewWriter(c.w)
	table.SetHeader(t.Headers())
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)

	align := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		if col.Align == "right" {
			align[i] = tablewriter.ALIGN_RIGHT
		} else {
			align[i] = tablewriter.ALIGN_LEFT
		}
	}
	table.SetColumnAlignment(align)

	for _, row := range t.Rows {
		table.Append(row)
	}
	if t.Summary != nil {
		footer := make([]string, len(t.Columns))
		footer[0] = t.Summary.Label
		for i, col := range t.Columns[1:] {
			footer[i+1] = t.Summary.Values[col.Key]
		}
		table.SetFooter(footer)
	}
	table.Render()
}

// Records prints a header row followed by data rows, as produced by
// dataframe.Records.
func (c *Console) Records(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	table := tablewriter.NewWriter(c.w)
	table.SetHeader(rows[0])
	table.SetAutoFormatHeaders(false)
	table.AppendBulk(rows[1:])
	table.Render()
}

// StatsLine summarizes a class distribution on one line.
func StatsLine(d engine.Distribution) string {
	return fmt.Sprintf("classes %d · min %s · max %s · mean %.2f · sd %.2f · imbalance %.2f",
		d.Classes, engine.FormatNumber(d.Min), engine.FormatNumber(d.Max), d.Mean, d.StdDev, d.ImbalanceRatio)
}
