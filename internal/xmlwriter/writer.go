// =============================================================================
// PIXID Invoice Corrector - XML Writer Module
// =============================================================================
//
// This module serializes corrected PIXID documents. The element tree itself
// is produced by the fixer; the writer only controls the output form:
//
//   <?xml version="1.0" encoding="UTF-8"?>   <!-- declaration, rewritten -->
//   <Invoice xmlns="...">                    <!-- namespaces kept as read -->
//     <Header>                               <!-- re-indented -->
//       ...
//
// The caller's tree is never modified: indentation is applied to a copy.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"fmt"
	"os"

	"github.com/beevik/etree"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the number of spaces per nesting level.
	// A negative value disables indentation.
	// Default: 2
	Indent int

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                2,
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate serializes doc with the default options.
func Generate(doc *etree.Document) ([]byte, error) {
	return GenerateWithOptions(doc, DefaultGenerateOptions())
}

// GenerateWithOptions serializes doc with custom options.
//
// GENERATION PROCESS:
//   1. Copy the document
//   2. Drop any existing XML declaration, keep other top-level tokens
//   3. Prepend a fresh declaration if requested
//   4. Indent and write
func GenerateWithOptions(doc *etree.Document, options GenerateOptions) ([]byte, error) {
	if doc == nil || doc.Root() == nil {
		return nil, fmt.Errorf("failed to generate XML: empty document")
	}

	src := doc.Copy()
	out := etree.NewDocument()
	out.WriteSettings = src.WriteSettings

	if options.IncludeXMLDeclaration {
		out.CreateProcInst("xml", fmt.Sprintf(`version="%s" encoding="%s"`, options.XMLVersion, options.Encoding))
	}

	children := append([]etree.Token(nil), src.Child...)
	for _, tok := range children {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			continue
		}
		out.AddChild(tok)
	}

	if options.Indent < 0 {
		out.Indent(etree.NoIndent)
	} else {
		out.Indent(options.Indent)
	}

	var buffer bytes.Buffer
	if _, err := out.WriteTo(&buffer); err != nil {
		return nil, fmt.Errorf("failed to marshal XML: %w", err)
	}
	return buffer.Bytes(), nil
}

// WriteFile serializes doc to path.
func WriteFile(path string, doc *etree.Document, options GenerateOptions) error {
	data, err := GenerateWithOptions(doc, options)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write XML file %s: %w", path, err)
	}
	return nil
}
