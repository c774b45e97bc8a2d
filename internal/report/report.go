// Package report prints cajoling messages for people, with the offending
// source underlined.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"github.com/fatih/color"

	"bennypowers.dev/cajoler/internal/message"
)

const tabWidth = 4

var (
	errorStyle   = color.New(color.FgRed, color.Bold)
	warningStyle = color.New(color.FgHiYellow, color.Bold)
	lintStyle    = color.New(color.FgCyan, color.Bold)
	typeStyle    = color.New(color.FgYellow, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	caretStyle   = color.New(color.FgRed, color.Bold)
)

const messageTemplate = `{{header .}}
{{location .}}
{{- if .Lines}}
{{gutter .Padding ""}}
{{- range .Lines}}
{{gutter $.Padding .Number}}{{.Text}}
{{- end}}
{{gutter .Padding ""}}{{underline .}}
{{- end}}
`

var tmpl = template.Must(template.New("message").Funcs(template.FuncMap{
	"header":    header,
	"location":  location,
	"gutter":    gutter,
	"underline": underline,
}).Parse(messageTemplate))

type snippetLine struct {
	Number string
	Text   string
}

type messageData struct {
	Level   message.Level
	Type    string
	Text    string
	File    string
	Line    int
	Column  int
	Padding int
	Lines   []snippetLine
	// Indent and Width place the underline under the last snippet line.
	Indent int
	Width  int
}

// Format writes each message with a snippet of its source. sources maps
// source names to their text; messages about other sources are written
// without a snippet.
func Format(w io.Writer, msgs []message.Message, sources map[string]string) error {
	split := map[string][]string{}
	for _, m := range msgs {
		if err := tmpl.Execute(w, data(m, sources, split)); err != nil {
			return fmt.Errorf("formatting %s: %w", m.Type.Name, err)
		}
	}
	return nil
}

// Summary returns a one line count of messages by level.
func Summary(msgs []message.Message) string {
	counts := map[message.Level]int{}
	for _, m := range msgs {
		counts[m.Level]++
	}
	var parts []string
	for _, l := range []message.Level{message.FatalError, message.Error, message.Warning, message.Lint} {
		if n := counts[l]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ToLower(l.String())))
		}
	}
	if len(parts) == 0 {
		return "no problems"
	}
	return strings.Join(parts, ", ")
}

func data(m message.Message, sources map[string]string, split map[string][]string) messageData {
	d := messageData{
		Level:  m.Level,
		Type:   m.Type.Name,
		Text:   m.Text(),
		File:   m.Pos.Source,
		Line:   m.Pos.Start.Line,
		Column: m.Pos.Start.Column,
	}
	src, ok := sources[m.Pos.Source]
	if !ok || m.Pos.IsUnknown() {
		return d
	}
	lines, ok := split[m.Pos.Source]
	if !ok {
		lines = strings.Split(src, "\n")
		split[m.Pos.Source] = lines
	}
	start, end := m.Pos.Start.Line, max(m.Pos.End.Line, m.Pos.Start.Line)
	if start > len(lines) {
		return d
	}
	end = min(end, len(lines))
	d.Padding = len(strconv.Itoa(end))
	for i := start; i <= end; i++ {
		d.Lines = append(d.Lines, snippetLine{Number: strconv.Itoa(i), Text: expandTabs(lines[i-1])})
	}

	last := lines[end-1]
	from := 0
	if start == end {
		from = min(m.Pos.Start.Column-1, len(last))
	}
	to := len(last)
	if m.Pos.End.Line == end {
		to = min(max(m.Pos.End.Column-1, from), len(last))
	}
	d.Indent = len(expandTabs(last[:from]))
	d.Width = max(len(expandTabs(last[:to]))-d.Indent, 1)
	return d
}

func header(d messageData) string {
	var level string
	switch {
	case d.Level >= message.Error:
		level = errorStyle.Sprint(strings.ToLower(d.Level.String()) + ": ")
	case d.Level == message.Warning:
		level = warningStyle.Sprint("warning: ")
	default:
		level = lintStyle.Sprint("lint: ")
	}
	return level + typeStyle.Sprint(d.Type) + ": " + d.Text
}

func location(d messageData) string {
	loc := d.File
	if loc == "" {
		loc = "<input>"
	}
	if d.Line > 0 {
		loc += fmt.Sprintf(":%d:%d", d.Line, d.Column)
	}
	return lineStyle.Sprint(" --> ") + fileStyle.Sprint(loc)
}

func gutter(width int, number string) string {
	return lineStyle.Sprintf("%*s | ", width, number)
}

func underline(d messageData) string {
	return strings.Repeat(" ", d.Indent) + caretStyle.Sprint(strings.Repeat("^", d.Width))
}

func expandTabs(s string) string {
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}
