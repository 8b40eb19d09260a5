package compose

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLSurface is an Editor over a contenteditable HTML fragment, as found in
// webmail compose windows. Text renders <br> and block boundaries as line
// breaks; SetText rebuilds the fragment as one <div> per line.
type HTMLSurface struct {
	root    *html.Node
	nodes   []*html.Node
	changes int
}

// NewHTMLSurface parses an HTML fragment.
func NewHTMLSurface(fragment string) (*HTMLSurface, error) {
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	children, err := html.ParseFragment(strings.NewReader(fragment), root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse draft html: %w", err)
	}
	for _, c := range children {
		root.AppendChild(c)
	}
	s := &HTMLSurface{root: root}
	s.index()
	return s, nil
}

func (s *HTMLSurface) index() {
	s.nodes = s.nodes[:0]
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipContent(n) {
			return
		}
		if n.Type == html.TextNode {
			s.nodes = append(s.nodes, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(s.root)
}

func (s *HTMLSurface) TextNodes() []string {
	out := make([]string, len(s.nodes))
	for i, n := range s.nodes {
		out[i] = n.Data
	}
	return out
}

func (s *HTMLSurface) Text() string {
	var (
		b       strings.Builder
		pending bool
	)
	breakIfPending := func() {
		if pending && b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
		pending = false
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if n.Data == "" {
				return
			}
			breakIfPending()
			b.WriteString(n.Data)
			return
		case html.ElementNode:
			if skipContent(n) {
				return
			}
			if n.DataAtom == atom.Br {
				breakIfPending()
				b.WriteByte('\n')
				return
			}
		}
		block := n != s.root && isBlock(n)
		if block {
			pending = true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			pending = true
		}
	}
	walk(s.root)
	return b.String()
}

// SetText replaces the whole fragment with text, one <div> per line.
// Empty lines become <div><br></div>.
func (s *HTMLSurface) SetText(text string) {
	for c := s.root.FirstChild; c != nil; {
		next := c.NextSibling
		s.root.RemoveChild(c)
		c = next
	}
	for _, line := range lineBreaks.Split(text, -1) {
		div := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
		if line == "" {
			div.AppendChild(&html.Node{Type: html.ElementNode, Data: "br", DataAtom: atom.Br})
		} else {
			div.AppendChild(&html.Node{Type: html.TextNode, Data: line})
		}
		s.root.AppendChild(div)
	}
	s.index()
}

func (s *HTMLSurface) SetTextNode(i int, value string) {
	if i < 0 || i >= len(s.nodes) {
		return
	}
	s.nodes[i].Data = value
}

func (s *HTMLSurface) NotifyChanged() { s.changes++ }

// Changes returns how many change notifications were emitted.
func (s *HTMLSurface) Changes() int { return s.changes }

// HTML renders the current fragment.
func (s *HTMLSurface) HTML() string {
	var b strings.Builder
	for c := s.root.FirstChild; c != nil; c = c.NextSibling {
		// Rendering to a strings.Builder cannot fail.
		_ = html.Render(&b, c)
	}
	return b.String()
}

func skipContent(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head, atom.Template:
		return true
	}
	return false
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Div, atom.P, atom.Li, atom.Ul, atom.Ol, atom.Blockquote, atom.Pre,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Table, atom.Tr, atom.Section, atom.Article, atom.Header, atom.Footer, atom.Hr:
		return true
	}
	return false
}
