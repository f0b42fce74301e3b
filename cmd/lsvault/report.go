package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type checkKind int

const (
	checkInfo checkKind = iota
	checkOK
	checkWarn
	checkFailed
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const reportLabelWidth = 18

// report accumulates the sectioned key/value layout shared by `status`.
type report struct {
	out   io.Writer
	color bool
	lines []string
}

func newReport(out io.Writer) *report {
	return &report{out: out, color: isTerminal(out)}
}

func (r *report) section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	r.lines = append(r.lines, r.paint(ansiBlue, strings.ToUpper(title)))
}

func (r *report) value(label, value string) {
	r.lines = append(r.lines, fmt.Sprintf("  %-*s %s", reportLabelWidth, label+":", value))
}

func (r *report) check(label string, kind checkKind, detail string) {
	tag := "[" + checkKindLabel(kind) + "]"
	if detail != "" {
		tag += " " + detail
	}
	r.lines = append(r.lines, fmt.Sprintf("  %-*s %s", reportLabelWidth, label+":", r.paint(checkKindColor(kind), tag)))
}

func (r *report) flush() {
	for _, line := range r.lines {
		fmt.Fprintln(r.out, line)
	}
	r.lines = nil
}

func (r *report) paint(color, s string) string {
	if !r.color || color == "" {
		return s
	}
	return color + s + ansiReset
}

func checkKindLabel(kind checkKind) string {
	switch kind {
	case checkOK:
		return "OK"
	case checkWarn:
		return "WARN"
	case checkFailed:
		return "FAIL"
	default:
		return "INFO"
	}
}

func checkKindColor(kind checkKind) string {
	switch kind {
	case checkOK:
		return ansiGreen
	case checkWarn:
		return ansiYellow
	case checkFailed:
		return ansiRed
	default:
		return ""
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
