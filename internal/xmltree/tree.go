package xmltree

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// Parse reads an XML document. It only checks well-formedness; structural
// expectations are the parser's business.
func Parse(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("failed to parse XML: document has no root element")
	}
	return doc, nil
}

// Clone returns a deep copy of doc. The copy shares nothing with the source.
func Clone(doc *etree.Document) *etree.Document {
	return doc.Copy()
}

// Text returns the trimmed text content of el, or "" for a nil element.
func Text(el *etree.Element) string {
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

// Decimal parses the text content of el. Missing elements and unparseable
// text both yield ok == false.
func Decimal(el *etree.Element) (decimal.Decimal, bool) {
	text := Text(el)
	if text == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(text, ",", "."))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// SetText overwrites the text content of el. Nil elements are ignored.
func SetText(el *etree.Element, text string) bool {
	if el == nil {
		return false
	}
	el.SetText(text)
	return true
}

// Remove detaches el from its parent.
func Remove(el *etree.Element) bool {
	if el == nil || el.Parent() == nil {
		return false
	}
	return el.Parent().RemoveChild(el) != nil
}
