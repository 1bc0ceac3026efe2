package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Reporter renders compile errors against the source they came from.
type Reporter struct {
	filename string
	source   string
	lines    []string
}

// NewReporter creates a new error reporter for a file
func NewReporter(filename, source string) *Reporter {
	return &Reporter{
		filename: filename,
		source:   source,
		lines:    strings.Split(source, "\n"),
	}
}

// Report formats any error. Errors that are not CompileErrors get a plain header.
func (r *Reporter) Report(err error) string {
	if ce, ok := As(err); ok {
		return r.Format(ce)
	}
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	return fmt.Sprintf("%s: %s\n\n", red("error"), err)
}

// Format renders a compile error in Rust-like style with source context
func (r *Reporter) Format(err *CompileError) string {
	var result strings.Builder

	red := color.New(color.FgRed, color.Bold).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	// Header: error[E0100]: message
	result.WriteString(fmt.Sprintf("%s[%s]: %s\n", red("error"), err.Code, err.Message))

	lineNumberWidth := r.lineNumberWidth(err.Position.Line)
	indent := strings.Repeat(" ", lineNumberWidth)

	filename := err.Position.Filename
	if filename == "" {
		filename = r.filename
	}

	if !err.HasPosition() {
		result.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("-->"), filename))
		r.writeTrailer(&result, err, indent)
		return result.String()
	}

	result.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n",
		indent, dim("-->"), filename, err.Position.Line, err.Position.Column))
	result.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

	if err.Position.Line > 1 && err.Position.Line-1 <= len(r.lines) {
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			dim(fmt.Sprintf("%*d", lineNumberWidth, err.Position.Line-1)),
			dim("│"),
			r.lines[err.Position.Line-2]))
	}

	if err.Position.Line <= len(r.lines) {
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			bold(fmt.Sprintf("%*d", lineNumberWidth, err.Position.Line)),
			dim("│"),
			r.lines[err.Position.Line-1]))
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			indent, dim("│"), r.marker(err.Position.Column, err.Length)))
	}

	if err.Position.Line < len(r.lines) {
		result.WriteString(fmt.Sprintf("%s %s %s\n",
			dim(fmt.Sprintf("%*d", lineNumberWidth, err.Position.Line+1)),
			dim("│"),
			r.lines[err.Position.Line]))
	}

	r.writeTrailer(&result, err, indent)
	return result.String()
}

func (r *Reporter) writeTrailer(result *strings.Builder, err *CompileError, indent string) {
	dim := color.New(color.Faint).SprintFunc()
	for _, note := range err.Notes {
		noteColor := color.New(color.FgBlue).SprintFunc()
		result.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), noteColor("note:"), note))
	}
	if err.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		result.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), helpColor("help:"), err.HelpText))
	}
	result.WriteString("\n")
}

// marker creates the underline marker for errors
func (r *Reporter) marker(column, length int) string {
	if length <= 0 {
		length = 1
	}
	spaces := strings.Repeat(" ", max(0, column-1))
	markerColor := color.New(color.FgRed, color.Bold).SprintFunc()
	return spaces + markerColor(strings.Repeat("^", length))
}

func (r *Reporter) lineNumberWidth(line int) int {
	width := len(fmt.Sprintf("%d", line))
	if width < 3 {
		width = 3 // minimum width for visual alignment
	}
	return width
}
