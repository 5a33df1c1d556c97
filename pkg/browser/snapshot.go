package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// droppedTags never carry targetable content.
var droppedTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Iframe:   true,
	atom.Embed:    true,
	atom.Object:   true,
	atom.Svg:      true,
	atom.Link:     true,
	atom.Meta:     true,
}

// blockTags start on their own indented line.
var blockTags = map[atom.Atom]bool{
	atom.Html: true, atom.Head: true, atom.Body: true,
	atom.Div: true, atom.P: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Nav: true, atom.Main: true, atom.Aside: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true,
	atom.Table: true, atom.Tr: true, atom.Td: true, atom.Th: true,
	atom.Form: true, atom.Fieldset: true, atom.Select: true,
}

// selectorAttrs are the attributes the resolver's strategies match on, plus
// a few that help a reader identify the element.
var selectorAttrs = map[string]bool{
	"id": true, "name": true, "type": true, "value": true, "placeholder": true,
	"href": true, "role": true, "for": true, "alt": true, "title": true,
	"checked": true, "selected": true, "disabled": true,
}

// domSnapshot writes a cleaned copy of a document, keeping structure and
// the attributes selectors depend on, within a size limit.
type domSnapshot struct {
	sb        strings.Builder
	limit     int
	truncated bool
}

// cleanHTML returns the cleaned document and whether it was cut at limit.
func cleanHTML(rawHTML string, limit int) (string, bool, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", false, fmt.Errorf("failed to parse HTML: %w", err)
	}
	s := &domSnapshot{limit: limit}
	s.walk(doc, 0)
	return s.sb.String(), s.truncated, nil
}

func (s *domSnapshot) full() bool {
	if s.limit > 0 && s.sb.Len() >= s.limit {
		s.truncated = true
	}
	return s.truncated
}

func (s *domSnapshot) walk(n *html.Node, depth int) {
	if s.full() {
		return
	}
	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return
	case html.TextNode:
		s.text(n.Data)
		return
	case html.ElementNode:
		if droppedTags[n.DataAtom] {
			return
		}
		s.element(n, depth)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c, depth)
	}
}

func (s *domSnapshot) text(data string) {
	text := strings.Join(strings.Fields(data), " ")
	if text == "" {
		return
	}
	if s.limit > 0 && s.sb.Len()+len(text) > s.limit {
		remaining := s.limit - s.sb.Len()
		if remaining > 0 {
			s.sb.WriteString(html.EscapeString(truncateRunes(text, remaining)))
		}
		s.sb.WriteString("...")
		s.truncated = true
		return
	}
	s.sb.WriteString(html.EscapeString(text))
}

func (s *domSnapshot) element(n *html.Node, depth int) {
	tag := n.Data
	block := blockTags[n.DataAtom]
	if block && s.sb.Len() > 0 {
		s.newline(depth)
	}

	s.sb.WriteByte('<')
	s.sb.WriteString(tag)
	for _, a := range n.Attr {
		key := strings.ToLower(a.Key)
		if selectorAttrs[key] || strings.HasPrefix(key, "aria-") || strings.HasPrefix(key, "data-") {
			fmt.Fprintf(&s.sb, ` %s="%s"`, key, html.EscapeString(a.Val))
		}
	}
	s.sb.WriteByte('>')

	if isVoid(n.DataAtom) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c, depth+1)
	}
	if block {
		s.newline(depth)
	}
	s.sb.WriteString("</")
	s.sb.WriteString(tag)
	s.sb.WriteByte('>')
}

func (s *domSnapshot) newline(depth int) {
	s.sb.WriteByte('\n')
	s.sb.WriteString(strings.Repeat("  ", depth))
}

func isVoid(a atom.Atom) bool {
	switch a {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr, atom.Img,
		atom.Input, atom.Link, atom.Meta, atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
