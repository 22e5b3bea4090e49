package parser

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/fixtures"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestExtractSingleDay(t *testing.T) {
	doc, err := Extract(fixtures.SingleDay)
	require.NoError(t, err)
	rec := doc.Record

	assert.Equal(t, "FAC-2025-06-0042", rec.InvoiceID)
	assert.Equal(t, types.TimecardsInHeader, rec.TimecardsPosition)
	assert.Equal(t, "2025-06-30", rec.PeriodStart)
	assert.Equal(t, "2025-06-30", rec.PeriodEnd)
	assert.Equal(t, "2025-06-30", rec.DebPer)
	assert.Equal(t, "2025-07-04", rec.FinPer)

	assert.True(t, rec.RAFHours.Equal(dec("8")), rec.RAFHours.String())
	assert.True(t, rec.InvoiceHours.Equal(dec("38")), rec.InvoiceHours.String())
	assert.True(t, rec.TotalCharges.Equal(dec("1145.60")))
	assert.True(t, rec.TotalTax.Equal(dec("229.12")))
	assert.True(t, rec.TotalAmount.Equal(dec("1374.72")))
	assert.True(t, rec.VATRate.Equal(dec("20")))

	assert.Equal(t, []string{"Heures travaillées", "Prime de Panier de Chantier", "Indemnité de Transport"}, rec.RAFDetails.Keys())

	require.Len(t, rec.Lines, 6)
	first := rec.Lines[0]
	assert.Equal(t, "HN", first.ReasonCode)
	assert.Equal(t, "Heures travaillées du 30/06/2025 au 04/07/2025", first.Description)
	assert.Equal(t, "HUR", first.Unit)
	assert.True(t, first.UnitPrice.Equal(dec("24.4216")))
	assert.True(t, first.Total.Equal(dec("928.02")))
	assert.NotNil(t, first.Element)

	// An hours description billed in pieces is not counted as invoiced hours.
	assert.Equal(t, "PCE", rec.Lines[1].Unit)
}

func TestExtractNamespacedLineTimecards(t *testing.T) {
	doc, err := Extract(fixtures.PartialWeekNS)
	require.NoError(t, err)
	rec := doc.Record

	assert.Equal(t, "FAC-2025-07-0117", rec.InvoiceID)
	assert.Equal(t, types.TimecardsInLine, rec.TimecardsPosition)
	assert.Equal(t, "http://ns.hr-xml.org/2007-04-15", rec.Namespaces[""])
	assert.Equal(t, "urn:pixid:extension", rec.Namespaces["px"])
	assert.Equal(t, "2025-07-28", rec.PeriodStart)
	assert.Equal(t, "2025-07-31", rec.PeriodEnd)
	assert.True(t, rec.RAFHours.Equal(dec("30")), rec.RAFHours.String())
	assert.True(t, rec.InvoiceHours.Equal(dec("37.5")), rec.InvoiceHours.String())

	worked, ok := rec.RAFDetails.Get("Heures travaillées")
	require.True(t, ok)
	assert.True(t, worked.Equal(dec("28")))
	require.Len(t, rec.Lines, 5)
}

func TestExtractMissingInvoice(t *testing.T) {
	_, err := Extract([]byte(`<Envelope><Header/></Envelope>`))
	require.Error(t, err)

	var structErr *DocumentStructureError
	assert.True(t, errors.As(err, &structErr))
	assert.True(t, errors.Is(err, ErrNoInvoice))
}

func TestExtractMalformedXML(t *testing.T) {
	_, err := Extract([]byte(`<Invoice><Header total=1/></Invoice>`))
	var structErr *DocumentStructureError
	assert.True(t, errors.As(err, &structErr))
	assert.False(t, errors.Is(err, ErrNoInvoice))
}

func TestExtractDefaultsMissingFields(t *testing.T) {
	doc, err := Extract([]byte(`<Invoice>
  <Header><TotalCharges>abc</TotalCharges></Header>
  <Line><Description>Heures</Description><ItemQuantity>3</ItemQuantity></Line>
</Invoice>`))
	require.NoError(t, err)
	rec := doc.Record

	assert.Equal(t, types.UnknownInvoiceID, rec.InvoiceID)
	assert.Equal(t, types.TimecardsNone, rec.TimecardsPosition)
	assert.True(t, rec.TotalCharges.IsZero())
	assert.True(t, rec.VATRate.Equal(dec("20")))
	assert.True(t, rec.RAFHours.IsZero())
	require.Len(t, rec.Lines, 1)
	assert.Equal(t, "PCE", rec.Lines[0].Unit)
	assert.True(t, rec.InvoiceHours.IsZero())
}

func TestExtractAggregatesSeveralTimecards(t *testing.T) {
	doc, err := Extract([]byte(`<Invoice><Header>
  <TimeCard>
    <PeriodStartDate>2025-03-31</PeriodStartDate><PeriodEndDate>2025-03-31</PeriodEndDate>
    <TimeInterval type="Heures travaillées"><Duration>7</Duration></TimeInterval>
  </TimeCard>
  <TimeCard>
    <PeriodStartDate>2025-03-28</PeriodStartDate><PeriodEndDate>2025-03-30</PeriodEndDate>
    <TimeInterval><Quantity>2</Quantity></TimeInterval>
  </TimeCard>
</Header></Invoice>`))
	require.NoError(t, err)
	rec := doc.Record

	assert.Equal(t, "2025-03-28", rec.PeriodStart)
	assert.Equal(t, "2025-03-31", rec.PeriodEnd)
	assert.True(t, rec.RAFHours.Equal(dec("7")))
	unknown, ok := rec.RAFDetails.Get("Unknown")
	require.True(t, ok)
	assert.True(t, unknown.Equal(dec("2")))
}
