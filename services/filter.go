package services

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"stopfrisk/models"
)

// listItemRegexp finds single-line <li>…</li> spans. Items that open on one
// line and close on another are not candidates.
var listItemRegexp = regexp.MustCompile(`(?is)<li(?:\s[^>]*)?>.*?</li\s*>`)

var listContext = &html.Node{Type: html.ElementNode, Data: "ul", DataAtom: atom.Ul}

// FilterListItems returns the simple list items found in lines, in order.
// An item containing a link is dropped, as is any line without an item.
// Nothing is reordered or deduplicated; a line holding two simple items
// yields two fragments with the same position.
func FilterListItems(lines []string) []models.RawFragment {
	var out []models.RawFragment
	for pos, line := range lines {
		for _, item := range listItemRegexp.FindAllString(line, -1) {
			text, ok := simpleItemText(item)
			if !ok {
				continue
			}
			out = append(out, models.RawFragment{Text: text, Position: pos})
		}
	}
	return out
}

// simpleItemText parses one <li> span and returns its visible text, or false
// when the span holds an <a> element or does not parse as a list item.
func simpleItemText(item string) (string, bool) {
	nodes, err := html.ParseFragment(strings.NewReader(item), listContext)
	if err != nil {
		return "", false
	}

	var li *html.Node
	for _, n := range nodes {
		if n.Type == html.ElementNode && n.DataAtom == atom.Li {
			li = n
			break
		}
	}
	if li == nil || containsLink(li) {
		return "", false
	}

	var sb strings.Builder
	collectText(li, &sb)
	return strings.Join(strings.Fields(sb.String()), " "), true
}

func containsLink(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.A {
			return true
		}
		if containsLink(c) {
			return true
		}
	}
	return false
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteString(" ")
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
