package compose

import "strings"

// Surface is a read-only view of an editable region.
type Surface interface {
	// Text returns the rendered text, with line breaks as "\n".
	Text() string
	// TextNodes returns the raw text nodes in document order.
	TextNodes() []string
}

// Editor is a Surface that can be written back to.
type Editor interface {
	Surface
	SetText(text string)
	SetTextNode(i int, value string)
	// NotifyChanged tells observers of the region that its content changed.
	NotifyChanged()
}

// PlainText is an Editor over a plain string, such as a textarea. It has a
// single text node.
type PlainText struct {
	text    string
	changes int
}

func NewPlainText(text string) *PlainText {
	return &PlainText{text: text}
}

func (p *PlainText) Text() string { return p.text }

func (p *PlainText) TextNodes() []string {
	if p.text == "" {
		return nil
	}
	return []string{p.text}
}

func (p *PlainText) SetText(text string) { p.text = text }

func (p *PlainText) SetTextNode(i int, value string) {
	if i == 0 {
		p.text = value
	}
}

func (p *PlainText) NotifyChanged() { p.changes++ }

// Changes returns how many change notifications were emitted.
func (p *PlainText) Changes() int { return p.changes }

// Format names the supported editor content formats.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// NewEditor builds an editor for content in the given format.
func NewEditor(format Format, content string) (Editor, error) {
	switch Format(strings.ToLower(string(format))) {
	case FormatHTML:
		return NewHTMLSurface(content)
	case FormatText, "":
		return NewPlainText(content), nil
	default:
		return nil, &UnsupportedFormatError{Format: format}
	}
}

// UnsupportedFormatError is returned by NewEditor for unknown formats.
type UnsupportedFormatError struct {
	Format Format
}

func (e *UnsupportedFormatError) Error() string {
	return "unsupported draft format: " + string(e.Format)
}
