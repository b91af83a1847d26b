package catalog

import (
	"strings"
)

// Render interpolates answers into the tool's prompt skeleton. It is pure and
// deterministic. Answers the tool does not declare are ignored and declared
// fields missing from answers render as the empty string, so any answer set,
// including an empty one, produces text.
func Render(tool *Tool, answers map[string]string) string {
	if tool == nil {
		return ""
	}

	data := make(map[string]string, len(tool.Fields))
	for _, f := range tool.Fields {
		data[f.ID] = answers[f.ID]
	}

	var b strings.Builder
	for i, sec := range tool.Sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("# ")
		b.WriteString(sec.Heading)
		b.WriteString("\n")
		b.WriteString(renderBody(sec, data))
	}
	return strings.TrimSpace(b.String())
}

func renderBody(sec Section, data map[string]string) string {
	if sec.tmpl == nil {
		return sec.Body
	}
	var b strings.Builder
	// Compiled templates only read string keys with missingkey=zero, so
	// Execute has nothing left to fail on; a partial body is still kept.
	_ = sec.tmpl.Execute(&b, data)
	return b.String()
}
