// Package extract turns marked-up notes into session claims.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/ppiankov/dialectic/internal/model"
)

// Markers recognized in notes
var Markers = []string{"INSIGHT", "EVIDENCE", "RISK", "COUNTER", "PATTERN", "ASSUMPTION"}

// claimNamespace seeds claim ids so re-importing a note yields the same ids
var claimNamespace = uuid.MustParse("6f1c9a52-3d4e-5b7a-9c21-8e0d4f6a1b3c")

// MarkerExtractor extracts claims from lines carrying a semantic marker
type MarkerExtractor struct {
	pattern *regexp.Regexp
	now     func() time.Time
}

// NewMarkerExtractor creates a new marker extractor
func NewMarkerExtractor() *MarkerExtractor {
	return &MarkerExtractor{
		pattern: regexp.MustCompile(`(?i)\[(` + strings.Join(Markers, "|") + `)\]`),
		now:     time.Now,
	}
}

// Extract returns one claim per marked span in markdown. A span runs from
// its marker to the next marker on the same line or the end of the line.
// Claims repeating an earlier span's normalized content are dropped.
func (e *MarkerExtractor) Extract(markdown, sourceID string) []model.Claim {
	now := e.now().UTC()
	seen := make(map[string]bool)
	var claims []model.Claim

	for _, line := range strings.Split(markdown, "\n") {
		matches := e.pattern.FindAllStringSubmatchIndex(line, -1)
		for i, m := range matches {
			end := len(line)
			if i+1 < len(matches) {
				end = matches[i+1][0]
			}
			content := cleanContent(line[m[1]:end])
			if content == "" {
				continue
			}

			key := NormalizeContent(content)
			if seen[key] {
				continue
			}
			seen[key] = true

			marker := "[" + strings.ToUpper(line[m[2]:m[3]]) + "]"
			claims = append(claims, model.Claim{
				ID:        ClaimID(sourceID, content),
				Content:   content,
				SourceID:  sourceID,
				Marker:    &marker,
				CreatedAt: now,
			})
		}
	}

	return claims
}

// ExtractHTML extracts claims from the visible text of an HTML document
func (e *MarkerExtractor) ExtractHTML(htmlContent, sourceID string) ([]model.Claim, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}
	return e.Extract(extractVisibleText(doc), sourceID), nil
}

// ClaimID derives a stable claim id from the source and content
func ClaimID(sourceID, content string) string {
	return uuid.NewSHA1(claimNamespace, []byte(sourceID+"\x00"+NormalizeContent(content))).String()
}

// NormalizeContent is the form used to compare claims for duplicates
func NormalizeContent(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// cleanContent trims whitespace and the separators people put after markers
func cleanContent(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, ":-–— \t")
	s = strings.TrimRight(s, " \t-*")
	return strings.Join(strings.Fields(s), " ")
}

// extractVisibleText extracts text nodes, one line per block element,
// skipping scripts and styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && isBlock(n.Data) {
			buf.WriteString("\n")
		}
	}

	walk(n)
	return buf.String()
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "li", "div", "br", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre":
		return true
	}
	return false
}
