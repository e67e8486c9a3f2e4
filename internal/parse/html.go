package parse

import (
	"strings"

	"golang.org/x/net/html"
)

// ParseHTML reduces an HTML chat export to visible text and parses it
// like a markdown transcript. Speaker labels ("You said:", "ChatGPT
// said:") survive the reduction because exports render them as text.
func (p *Parser) ParseHTML(htmlContent, filename string) *Result {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		// Fall back to treating the input as plain text
		return p.Parse(htmlContent, filename)
	}
	return p.Parse(visibleText(doc), filename)
}

// visibleText extracts text nodes, skipping scripts/styles. Block-level
// elements become line breaks so speaker headers stay on their own line.
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "li", "tr":
				buf.WriteString("\n")
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

		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "tr":
				buf.WriteString("\n")
			}
		}
	}

	walk(n)
	return buf.String()
}
