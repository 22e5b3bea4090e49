package xmltree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainDoc = `<Invoice>
  <Header>
    <TotalCharges>10.00</TotalCharges>
    <Description owner="DEB_PER">2025-06-30</Description>
  </Header>
  <Line><Description>A</Description></Line>
  <Line><Description>B</Description></Line>
</Invoice>`

const defaultNSDoc = `<Invoice xmlns="http://ns.hr-xml.org/2004-08-02">
  <Header><TotalCharges>10.00</TotalCharges></Header>
  <Line><Description>A</Description></Line>
</Invoice>`

const prefixedDoc = `<px:Envelope xmlns:px="urn:pixid">
  <px:Invoice>
    <px:Header><px:TotalCharges>12,50</px:TotalCharges></px:Header>
  </px:Invoice>
</px:Envelope>`

func TestLocatorPlainDocument(t *testing.T) {
	doc, err := Parse([]byte(plainDoc))
	require.NoError(t, err)

	loc := NewLocator(doc)
	root := doc.Root()

	assert.Equal(t, "10.00", Text(loc.Find(root, ".//Header/TotalCharges")))
	assert.Len(t, loc.FindAll(root, "Line"), 2)
	assert.Len(t, loc.FindAll(root, ".//Line//Description"), 2)
	assert.Equal(t, "2025-06-30", Text(loc.FindByOwner(root, "Description", "DEB_PER")))
	assert.Nil(t, loc.Find(root, ".//Missing"))
}

func TestLocatorDefaultNamespace(t *testing.T) {
	doc, err := Parse([]byte(defaultNSDoc))
	require.NoError(t, err)

	loc := NewLocator(doc)
	assert.Equal(t, "http://ns.hr-xml.org/2004-08-02", loc.Namespaces()[""])
	assert.Equal(t, "A", Text(loc.Find(doc.Root(), ".//Line/Description")))
}

func TestLocatorFallsBackToLocalName(t *testing.T) {
	doc, err := Parse([]byte(prefixedDoc))
	require.NoError(t, err)

	loc := NewLocator(doc)
	el := loc.Find(doc.Root(), ".//Invoice//TotalCharges")
	require.NotNil(t, el)

	d, ok := Decimal(el)
	require.True(t, ok)
	assert.Equal(t, "12.5", d.String())
}

func TestCloneIsIndependent(t *testing.T) {
	doc, err := Parse([]byte(plainDoc))
	require.NoError(t, err)

	copied := Clone(doc)
	loc := NewLocator(copied)
	lines := loc.FindAll(copied.Root(), ".//Line")
	require.Len(t, lines, 2)
	require.True(t, Remove(lines[0]))
	SetText(loc.Find(copied.Root(), ".//TotalCharges"), "0.00")

	orig := NewLocator(doc)
	assert.Len(t, orig.FindAll(doc.Root(), ".//Line"), 2)
	assert.Equal(t, "10.00", Text(orig.Find(doc.Root(), ".//TotalCharges")))
	assert.Len(t, loc.FindAll(copied.Root(), ".//Line"), 1)
}

func TestParseRejectsMalformedXML(t *testing.T) {
	_, err := Parse([]byte("<Invoice><Header total=1/></Invoice>"))
	assert.Error(t, err)
}
