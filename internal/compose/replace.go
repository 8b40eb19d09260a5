package compose

import (
	"regexp"
	"strings"

	"github.com/teemow/mailwright/internal/signature"
)

// Strategy names reported in an Outcome.
const (
	StrategyBody         = "body"
	StrategyTextNode     = "text-node"
	StrategyConcatenated = "concatenated"
	StrategyFullText     = "full-text"
)

// Edit targets of an Edit besides a node index.
const (
	// WholeText replaces the rendered text of the surface.
	WholeText = -1
	// AllNodes puts Value into the first text node and empties the others.
	AllNodes = -2
)

var lineBreaks = regexp.MustCompile(`\r?\n`)

// Edit is a write to commit to an Editor. Rest holds the values of the
// nodes following Node when a fragment spans several text nodes.
type Edit struct {
	Node  int
	Value string
	Rest  []string
}

func (e Edit) commit(ed Editor) {
	switch e.Node {
	case WholeText:
		ed.SetText(e.Value)
	case AllNodes:
		for i := range ed.TextNodes() {
			v := ""
			if i == 0 {
				v = e.Value
			}
			ed.SetTextNode(i, v)
		}
	default:
		ed.SetTextNode(e.Node, e.Value)
		for j, v := range e.Rest {
			ed.SetTextNode(e.Node+1+j, v)
		}
	}
}

// Resolution is the edit chosen for a fix and the strategy that chose it.
type Resolution struct {
	Strategy string
	Edit     Edit
}

// Outcome reports the result of applying a fix. When Applied is false, Text
// is the unchanged input.
type Outcome struct {
	Applied  bool   `json:"applied"`
	Text     string `json:"text"`
	Strategy string `json:"strategy,omitempty"`
}

type strategy struct {
	name    string
	resolve func(s Surface, original, fix string) (Edit, bool)
}

// strategies are tried in order; the first one that locates original wins.
var strategies = []strategy{
	{StrategyBody, replaceInBody},
	{StrategyTextNode, replaceInTextNode},
	{StrategyConcatenated, replaceInConcatenation},
	{StrategyFullText, replaceInFullText},
}

// Resolve finds the edit that replaces the first occurrence of original with
// fix on s. It reports false when original cannot be located; an empty
// original is never located.
func Resolve(s Surface, original, fix string) (Resolution, bool) {
	if original == "" {
		return Resolution{}, false
	}
	for _, st := range strategies {
		if edit, ok := st.resolve(s, original, fix); ok {
			return Resolution{Strategy: st.name, Edit: edit}, true
		}
	}
	return Resolution{}, false
}

// Apply resolves and commits a fix on ed. It does not notify the editor.
func Apply(ed Editor, original, fix string) Outcome {
	res, ok := Resolve(ed, original, fix)
	if !ok {
		return Outcome{Text: ed.Text()}
	}
	res.Edit.commit(ed)
	return Outcome{Applied: true, Text: ed.Text(), Strategy: res.Strategy}
}

// ApplyFix replaces the first occurrence of original with fix in fullText,
// preferring an occurrence in the body so that a signature block is left
// byte-identical.
func ApplyFix(fullText, original, fix string) Outcome {
	return Apply(NewPlainText(fullText), original, fix)
}

// replaceInBody replaces within the region above the signature block. Only
// the text nodes rendered above the signature are written, so markup and
// every byte outside the fragment are kept.
func replaceInBody(s Surface, original, fix string) (Edit, bool) {
	text := s.Text()
	bodyEnd := signature.Offset(text)
	nodes := s.TextNodes()
	starts := nodeOffsets(text, nodes)

	var (
		joined strings.Builder
		// at[i] is the offset of nodes[i] in joined
		at = make([]int, 0, len(nodes))
	)
	for i, node := range nodes {
		if starts[i] >= bodyEnd && node != "" {
			break
		}
		at = append(at, joined.Len())
		joined.WriteString(node[:min(len(node), max(bodyEnd-starts[i], 0))])
	}

	k := strings.Index(joined.String(), original)
	if k < 0 {
		return Edit{}, false
	}
	end := k + len(original)

	first := 0
	for first+1 < len(at) && at[first+1] <= k {
		first++
	}
	last := first
	for last+1 < len(at) && at[last+1] < end {
		last++
	}

	if first == last {
		node := nodes[first]
		i := k - at[first]
		return Edit{Node: first, Value: node[:i] + fix + node[i+len(original):]}, true
	}

	edit := Edit{Node: first, Value: nodes[first][:k-at[first]] + fix}
	for i := first + 1; i < last; i++ {
		edit.Rest = append(edit.Rest, "")
	}
	edit.Rest = append(edit.Rest, nodes[last][end-at[last]:])
	return edit, true
}

// nodeOffsets returns the offset at which each text node starts in the
// rendered text. Rendering only inserts line breaks between nodes.
func nodeOffsets(text string, nodes []string) []int {
	starts := make([]int, len(nodes))
	pos := 0
	for i, node := range nodes {
		if j := strings.Index(text[pos:], node); j >= 0 {
			pos += j
		}
		starts[i] = pos
		pos += len(node)
		if pos > len(text) {
			pos = len(text)
		}
	}
	return starts
}

func replaceInTextNode(s Surface, original, fix string) (Edit, bool) {
	for i, node := range s.TextNodes() {
		if strings.Contains(node, original) {
			return Edit{Node: i, Value: strings.Replace(node, original, fix, 1)}, true
		}
	}
	return Edit{}, false
}

// replaceInConcatenation handles fragments that span several text nodes.
func replaceInConcatenation(s Surface, original, fix string) (Edit, bool) {
	joined := strings.Join(s.TextNodes(), "")
	if !strings.Contains(joined, original) {
		return Edit{}, false
	}
	return Edit{Node: AllNodes, Value: strings.Replace(joined, original, fix, 1)}, true
}

func replaceInFullText(s Surface, original, fix string) (Edit, bool) {
	text := s.Text()
	if !strings.Contains(text, original) {
		return Edit{}, false
	}
	return Edit{Node: WholeText, Value: strings.Replace(text, original, fix, 1)}, true
}
