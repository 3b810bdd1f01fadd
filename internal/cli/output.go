package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"upbit-trader/internal/models"
)

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output instance.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	writer := cmd.OutOrStdout()
	return &Output{
		writer:       writer,
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && !color.NoColor && isTerminal(writer),
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.Println(o.Paint(fmt.Sprintf(format, args...), color.FgGreen))
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.Println(o.Paint(fmt.Sprintf(format, args...), color.FgRed))
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.Println(o.Paint(fmt.Sprintf(format, args...), color.FgYellow))
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.Println(o.Paint(fmt.Sprintf(format, args...), color.Bold))
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.Println(o.Paint(fmt.Sprintf(format, args...), color.Faint))
}

// Paint returns text with the given attributes when color is enabled.
func (o *Output) Paint(text string, attrs ...color.Attribute) string {
	if !o.colorEnabled {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

// Decision colors a trade action: BUY green, SELL red, HOLD yellow.
func (o *Output) Decision(action models.Action) string {
	switch action {
	case models.ActionBuy:
		return o.Paint(string(action), color.FgGreen)
	case models.ActionSell:
		return o.Paint(string(action), color.FgRed)
	default:
		return o.Paint(string(action), color.FgYellow)
	}
}

// State colors a cycle state.
func (o *Output) State(state models.CycleState) string {
	if state.IsAborted() {
		return o.Paint(string(state), color.FgRed)
	}
	return o.Paint(string(state), color.FgGreen)
}

// Table represents a simple table for output.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		output:  output,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = displayWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && displayWidth(cell) > widths[i] {
				widths[i] = displayWidth(cell)
			}
		}
	}

	t.printRow(t.headers, widths, true)
	t.printSeparator(widths)
	for _, row := range t.rows {
		t.printRow(row, widths, false)
	}
}

func (t *Table) printRow(cells []string, widths []int, isHeader bool) {
	var parts []string
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		padded := cell + strings.Repeat(" ", max(widths[i]-displayWidth(cell), 0))
		if isHeader {
			padded = t.output.Paint(padded, color.Bold)
		}
		parts = append(parts, padded)
	}
	t.output.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
}

func (t *Table) printSeparator(widths []int) {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w)
	}
	t.output.Println(t.output.Paint(strings.Join(parts, "──"), color.Faint))
}

// Box draws a box around content.
func (o *Output) Box(title string, content []string) {
	inner := displayWidth(title)
	for _, line := range content {
		if w := displayWidth(line); w > inner {
			inner = w
		}
	}
	border := strings.Repeat("─", inner+2)

	o.Printf("%s\n", o.Paint("┌"+border+"┐", color.Faint))
	o.Printf("%s %s%s %s\n", o.Paint("│", color.Faint), o.Paint(title, color.Bold),
		strings.Repeat(" ", inner-displayWidth(title)), o.Paint("│", color.Faint))
	o.Printf("%s\n", o.Paint("├"+border+"┤", color.Faint))
	for _, line := range content {
		o.Printf("%s %s%s %s\n", o.Paint("│", color.Faint), line,
			strings.Repeat(" ", inner-displayWidth(line)), o.Paint("│", color.Faint))
	}
	o.Printf("%s\n", o.Paint("└"+border+"┘", color.Faint))
}

// displayWidth counts runes after stripping ANSI codes.
func displayWidth(s string) int {
	return utf8.RuneCountInString(ansiPattern.ReplaceAllString(s, ""))
}
