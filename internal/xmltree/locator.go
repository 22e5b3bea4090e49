// =============================================================================
// PIXID Invoice Corrector - Resilient Locator
// =============================================================================
//
// PIXID producers disagree on namespaces: some declare a default namespace,
// some prefix every element, some declare nothing at all. Every lookup in
// the pipeline goes through the Locator defined here, which applies the same
// two-step strategy everywhere:
//
//   1. QUALIFIED: match the local name AND the document's primary namespace
//      (the default namespace URI declared on the root, or no namespace).
//   2. LOCAL NAME: if step 1 found nothing, match the local name in any
//      namespace.
//
// PATH SYNTAX:
//   A small subset of XPath, enough for the PIXID structure:
//     Tag          child element
//     A/B          B child of A
//     A//B         B descendant of A
//     .//A         A descendant of the context element
//     //A          same as .//A
//
// =============================================================================

package xmltree

import (
	"strings"

	"github.com/beevik/etree"
)

// Locator resolves element paths against one document.
type Locator struct {
	// namespaces is the prefix to URI map declared on the root element.
	// The default namespace is stored under the empty prefix.
	namespaces map[string]string

	// primary is the namespace URI used by the qualified lookup.
	primary string
}

// NewLocator creates a Locator for doc.
func NewLocator(doc *etree.Document) *Locator {
	l := &Locator{namespaces: make(map[string]string)}
	if doc == nil || doc.Root() == nil {
		return l
	}

	for _, attr := range doc.Root().Attr {
		switch {
		case attr.Space == "" && attr.Key == "xmlns":
			l.namespaces[""] = attr.Value
		case attr.Space == "xmlns":
			l.namespaces[attr.Key] = attr.Value
		}
	}

	l.primary = l.namespaces[""]
	return l
}

// Namespaces returns a copy of the declared prefix to URI map.
func (l *Locator) Namespaces() map[string]string {
	out := make(map[string]string, len(l.namespaces))
	for k, v := range l.namespaces {
		out[k] = v
	}
	return out
}

// =============================================================================
// LOOKUPS
// =============================================================================

// Find returns the first element matching path under ctx, or nil.
func (l *Locator) Find(ctx *etree.Element, path string) *etree.Element {
	found := l.FindAll(ctx, path)
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// FindAll returns every element matching path under ctx, in document order.
func (l *Locator) FindAll(ctx *etree.Element, path string) []*etree.Element {
	if ctx == nil {
		return nil
	}

	steps := compile(path)
	if len(steps) == 0 {
		return nil
	}

	if found := l.evaluate(ctx, steps, true); len(found) > 0 {
		return found
	}
	return l.evaluate(ctx, steps, false)
}

// FindByOwner returns the first tag element under ctx (at any depth) whose
// owner attribute equals owner.
func (l *Locator) FindByOwner(ctx *etree.Element, tag, owner string) *etree.Element {
	for _, el := range l.FindAll(ctx, ".//"+tag) {
		if el.SelectAttrValue("owner", "") == owner {
			return el
		}
	}
	return nil
}

// FindAllByOwner returns every tag element under ctx whose owner attribute
// equals owner.
func (l *Locator) FindAllByOwner(ctx *etree.Element, tag, owner string) []*etree.Element {
	var out []*etree.Element
	for _, el := range l.FindAll(ctx, ".//"+tag) {
		if el.SelectAttrValue("owner", "") == owner {
			out = append(out, el)
		}
	}
	return out
}

// =============================================================================
// PATH EVALUATION
// =============================================================================

type axis int

const (
	axisChild axis = iota
	axisDescendant
)

type step struct {
	axis axis
	name string
}

// compile turns a path into steps. The first step of a relative path is a
// child step; ".//" and "//" prefixes make it a descendant step.
func compile(path string) []step {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, ".")

	var steps []step
	next := axisChild
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			next = axisDescendant
			continue
		}
		steps = append(steps, step{axis: next, name: localName(part)})
		next = axisChild
	}
	return steps
}

func (l *Locator) evaluate(ctx *etree.Element, steps []step, qualified bool) []*etree.Element {
	current := []*etree.Element{ctx}

	for _, s := range steps {
		var next []*etree.Element
		seen := make(map[*etree.Element]bool)

		for _, el := range current {
			var candidates []*etree.Element
			if s.axis == axisChild {
				candidates = el.ChildElements()
			} else {
				candidates = descendants(el)
			}

			for _, c := range candidates {
				if seen[c] || !l.matches(c, s.name, qualified) {
					continue
				}
				seen[c] = true
				next = append(next, c)
			}
		}

		if len(next) == 0 {
			return nil
		}
		current = next
	}

	return current
}

func (l *Locator) matches(el *etree.Element, name string, qualified bool) bool {
	if el.Tag != name {
		return false
	}
	if !qualified {
		return true
	}
	return el.NamespaceURI() == l.primary
}

// descendants lists every element below el in document order.
func descendants(el *etree.Element) []*etree.Element {
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			out = append(out, c)
			walk(c)
		}
	}
	walk(el)
	return out
}

// localName strips a "prefix:" from a path step.
func localName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}
