// Package viewer turns an analysis result into a display model and renders it.
package viewer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"resumeview/internal/model"
)

// Section headings.
const (
	HeadingExtracted = "Extracted Data"
	HeadingAnalysis  = "LLM Analysis"
)

// Field is one labelled scalar value.
type Field struct {
	Label string
	Value string
}

// Section is a titled block of pretty-printed JSON.
type Section struct {
	Heading string
	Body    string
}

// View is everything needed to display one analysis, independent of the output medium.
// Dismissible views are shown as an overlay with a close control.
type View struct {
	Title       string
	Fields      []Field
	Sections    []Section
	Dismissible bool
	// ArchiveURL optionally links to a stored copy of the original PDF.
	ArchiveURL string
}

// FromUploadResult builds the inline view shown after a successful upload.
func FromUploadResult(r *model.UploadResult) View {
	fields := []Field{
		{Label: "Filename", Value: r.Filename},
		{Label: "Name", Value: r.Name},
		{Label: "Email", Value: r.Email},
	}
	if r.Phone != "" {
		fields = append(fields, Field{Label: "Phone", Value: r.Phone})
	}
	return View{
		Title:    "Analysis",
		Fields:   fields,
		Sections: sections(r.ExtractedData, r.LLMAnalysis),
	}
}

// FromDetail builds the dismissible view of a stored resume.
func FromDetail(d *model.ResumeDetail) View {
	fields := []Field{
		{Label: "Uploaded at", Value: d.UploadedAt},
		{Label: "Name", Value: d.Name},
		{Label: "Email", Value: d.Email},
	}
	if d.Phone != "" {
		fields = append(fields, Field{Label: "Phone", Value: d.Phone})
	}
	return View{
		Title:       d.Filename,
		Fields:      fields,
		Sections:    sections(d.ExtractedData, d.LLMAnalysis),
		Dismissible: true,
	}
}

func sections(extracted, analysis json.RawMessage) []Section {
	return []Section{
		{Heading: HeadingExtracted, Body: FormatJSON(extracted)},
		{Heading: HeadingAnalysis, Body: FormatJSON(analysis)},
	}
}

// FormatJSON pretty-prints raw JSON with a two-space indent. Key order and nesting are
// kept exactly as received. Missing input renders as null; invalid JSON is returned as is.
func FormatJSON(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// WriteText renders v as plain text.
func WriteText(w io.Writer, v View) error {
	var b strings.Builder
	b.WriteString(v.Title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", len(v.Title)))
	b.WriteString("\n")
	for _, f := range v.Fields {
		fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Value)
	}
	if v.ArchiveURL != "" {
		fmt.Fprintf(&b, "Original PDF: %s\n", v.ArchiveURL)
	}
	for _, s := range v.Sections {
		fmt.Fprintf(&b, "\n%s\n%s\n%s\n", s.Heading, strings.Repeat("-", len(s.Heading)), s.Body)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
