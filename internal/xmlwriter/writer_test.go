package xmlwriter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/fixtures"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/xmltree"
)

func TestGenerateAddsSingleDeclaration(t *testing.T) {
	doc, err := xmltree.Parse(fixtures.PartialWeekNS)
	require.NoError(t, err)

	out, err := Generate(doc)
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Equal(t, 1, strings.Count(text, "<?xml"))
	assert.Contains(t, text, `<Invoice xmlns="http://ns.hr-xml.org/2007-04-15" xmlns:px="urn:pixid:extension">`)
	assert.Contains(t, text, "\n  <Header>")
	assert.Contains(t, text, "Heures travaillées")

	// Output parses back.
	_, err = xmltree.Parse(out)
	require.NoError(t, err)
}

func TestGenerateWithoutDeclaration(t *testing.T) {
	doc, err := xmltree.Parse([]byte(`<Invoice><Header/></Invoice>`))
	require.NoError(t, err)

	options := DefaultGenerateOptions()
	options.IncludeXMLDeclaration = false
	options.Indent = 4

	out, err := GenerateWithOptions(doc, options)
	require.NoError(t, err)
	text := string(out)
	assert.True(t, strings.HasPrefix(text, "<Invoice>"))
	assert.Contains(t, text, "<Invoice>\n    <Header/>\n</Invoice>")
}

func TestGenerateLeavesSourceUntouched(t *testing.T) {
	doc, err := xmltree.Parse([]byte(`<Invoice><Header/></Invoice>`))
	require.NoError(t, err)

	_, err = Generate(doc)
	require.NoError(t, err)

	src, err := doc.WriteToString()
	require.NoError(t, err)
	assert.Equal(t, "<Invoice><Header/></Invoice>", src)
}

func TestGenerateEmptyDocument(t *testing.T) {
	_, err := Generate(nil)
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	doc, err := xmltree.Parse(fixtures.SingleDay)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.xml")
	require.NoError(t, WriteFile(path, doc, DefaultGenerateOptions()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FAC-2025-06-0042")
}
