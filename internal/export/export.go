// Package export packages a summary as a downloadable artifact. Nothing here
// talks to a design tool; the "figma" format is a local JSON frame spec.
package export

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	stdhtml "html"
	"regexp"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/google/uuid"
)

const DefaultFrameName = "Datalicious Summary"

var ErrEmptySummary = errors.New("export: summary is empty")

type Format string

const (
	FormatText  Format = "text"
	FormatFigma Format = "figma"
	FormatHTML  Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "figma", "json":
		return FormatFigma, nil
	case "html":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unknown export format: %s (use text|figma|html)", s)
}

// Artifact is the exported file plus the ways a UI can offer it.
type Artifact struct {
	ID        string     `json:"id"`
	Format    Format     `json:"format"`
	FrameName string     `json:"frame_name"`
	Filename  string     `json:"filename"`
	MIMEType  string     `json:"mime_type"`
	Content   string     `json:"content"`
	DataURI   string     `json:"data_uri"`
	Anchor    string     `json:"anchor,omitempty"`
	Frame     *FrameSpec `json:"frame,omitempty"`
}

// FrameSpec is a minimal design-tool frame with one text layer per paragraph.
type FrameSpec struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Children []Layer           `json:"children"`
	Meta     map[string]string `json:"meta,omitempty"`
}

type Layer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Characters string `json:"characters"`
	FontSize   int    `json:"fontSize"`
}

var unsafeFilename = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f]+`)

// Export renders summary into the requested format.
func Export(summary, frameName string, format Format) (*Artifact, error) {
	if strings.TrimSpace(summary) == "" {
		return nil, ErrEmptySummary
	}
	frameName = strings.TrimSpace(frameName)
	if frameName == "" {
		frameName = DefaultFrameName
	}
	base := strings.TrimSpace(unsafeFilename.ReplaceAllString(frameName, "_"))
	if base == "" {
		base = "export"
	}
	a := &Artifact{ID: uuid.NewString(), Format: format, FrameName: frameName}

	switch format {
	case FormatText, "":
		a.Format = FormatText
		a.Filename = base + ".txt"
		a.MIMEType = "text/plain"
		a.Content = summary
	case FormatFigma:
		spec := Frame(summary, frameName)
		b, err := json.MarshalIndent(spec, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("export: encode frame: %w", err)
		}
		a.Filename = base + ".json"
		a.MIMEType = "application/json"
		a.Content = string(b)
		a.Frame = spec
	case FormatHTML:
		a.Filename = base + ".html"
		a.MIMEType = "text/html"
		a.Content = HTMLDocument(summary, frameName)
	default:
		return nil, fmt.Errorf("export: unsupported format %q", format)
	}
	a.DataURI = "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString([]byte(a.Content))
	a.Anchor = fmt.Sprintf(`<a href="%s" download="%s">Download %s</a>`,
		a.DataURI, stdhtml.EscapeString(a.Filename), stdhtml.EscapeString(frameName))
	return a, nil
}

// Frame builds the frame spec: a title layer followed by one layer per paragraph.
func Frame(summary, name string) *FrameSpec {
	spec := &FrameSpec{
		ID:   uuid.NewString(),
		Name: name,
		Type: "FRAME",
		Meta: map[string]string{
			"generator":  "datalicious",
			"created_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
	spec.Children = append(spec.Children, Layer{
		ID: uuid.NewString(), Name: "Title", Type: "TEXT", Characters: name, FontSize: 32,
	})
	for i, para := range paragraphs(summary) {
		spec.Children = append(spec.Children, Layer{
			ID:         uuid.NewString(),
			Name:       fmt.Sprintf("Paragraph %d", i+1),
			Type:       "TEXT",
			Characters: para,
			FontSize:   16,
		})
	}
	return spec
}

func paragraphs(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(s, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RenderMarkdown converts summary markdown to an HTML fragment.
func RenderMarkdown(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return string(markdown.ToHTML([]byte(md), p, r))
}

// HTMLDocument wraps the rendered summary in a standalone page.
func HTMLDocument(summary, title string) string {
	var b strings.Builder
	t := stdhtml.EscapeString(title)
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n</head>\n<body>\n<h1>%s</h1>\n", t, t)
	b.WriteString(RenderMarkdown(summary))
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
