package validation

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/calculator"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/fixer"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/fixtures"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/parser"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/xmltree"
)

func TestValidateOriginalSingleDay(t *testing.T) {
	doc, err := xmltree.Parse(fixtures.SingleDay)
	require.NoError(t, err)

	result := Validate(doc, types.DefaultTolerances())

	assert.False(t, result.IsValid)
	assert.False(t, result.RAFEqualsLines)
	assert.True(t, result.LinesEqualTotal)
	assert.True(t, result.TaxCorrect)
	assert.True(t, result.MandatoryFields)
	assert.False(t, result.PeriodConsistent)
	assert.Contains(t, result.Error, "RAF total 241.18 does not match lines total 1145.60")
	assert.Len(t, result.Warnings, 1)
}

func TestValidateCorrectedDocuments(t *testing.T) {
	for name, data := range map[string][]byte{
		"single_day":   fixtures.SingleDay,
		"partial_week": fixtures.PartialWeekNS,
	} {
		t.Run(name, func(t *testing.T) {
			src, err := parser.Extract(data)
			require.NoError(t, err)
			out, err := fixer.Fix(src.Tree, calculator.Calculate(src.Record))
			require.NoError(t, err)

			result := Validate(out, types.DefaultTolerances())

			assert.True(t, result.IsValid, result.Error)
			assert.True(t, result.RAFEqualsLines)
			assert.True(t, result.LinesEqualTotal)
			assert.True(t, result.TaxCorrect)
			assert.True(t, result.MandatoryFields)
			assert.True(t, result.PeriodConsistent)
			assert.Empty(t, result.Errors)
			assert.Empty(t, result.Warnings)
			assert.Empty(t, result.Error)
		})
	}
}

func TestValidateBrokenTotals(t *testing.T) {
	doc, err := xmltree.Parse([]byte(`<Invoice><Header>
  <DocumentIds><Id>X-1</Id></DocumentIds>
  <TotalCharges>100.00</TotalCharges><TotalTax>19.00</TotalTax><TotalAmount>120.00</TotalAmount>
  <TimeCard><PeriodStartDate>2025-03-03</PeriodStartDate><PeriodEndDate>2025-03-03</PeriodEndDate></TimeCard>
</Header>
<Line><Description>Forfait</Description><ItemQuantity>1</ItemQuantity><Charges><Charge><Total>90.00</Total></Charge></Charges></Line>
</Invoice>`))
	require.NoError(t, err)

	result := Validate(doc, types.DefaultTolerances())

	assert.False(t, result.IsValid)
	assert.True(t, result.RAFEqualsLines, "no RAF hours and no hour lines")
	assert.False(t, result.LinesEqualTotal)
	assert.False(t, result.TaxCorrect)
	assert.True(t, result.MandatoryFields)
	assert.Len(t, result.Errors, 3)
	assert.Equal(t, "lines total 90.00 does not match TotalCharges 100.00; "+
		"TotalTax 19.00 should be 20.00 at 20%; "+
		"TotalAmount 120.00 should be 119.00", result.Error)
}

func TestValidateMandatoryFields(t *testing.T) {
	doc, err := xmltree.Parse([]byte(`<Invoice><Header/></Invoice>`))
	require.NoError(t, err)

	result := Validate(doc, types.DefaultTolerances())

	assert.False(t, result.IsValid)
	assert.False(t, result.MandatoryFields)
	assert.Contains(t, result.Errors, "missing invoice id")
	assert.Contains(t, result.Errors, "invoice has no lines")
	assert.Contains(t, result.Warnings, "no timecard period")
}

func TestValidateMissingInvoice(t *testing.T) {
	doc, err := xmltree.Parse([]byte(`<Envelope/>`))
	require.NoError(t, err)

	result := Validate(doc, types.DefaultTolerances())
	assert.False(t, result.IsValid)
	assert.Equal(t, "missing Invoice element", result.Error)

	assert.False(t, Validate(nil, types.DefaultTolerances()).IsValid)
}

func TestTreatWarningsAsErrors(t *testing.T) {
	rec := &types.InvoiceRecord{
		InvoiceID:   "W-1",
		PeriodStart: "2025-03-03",
		PeriodEnd:   "2025-03-03",
		DebPer:      "2025-03-03",
		FinPer:      "2025-03-07",
		Lines:       []types.LineItem{{Description: "Forfait"}},
		RAFDetails:  types.NewQuantities(),
	}

	lenient := NewValidator(zerolog.Nop()).ValidateRecord(rec)
	assert.True(t, lenient.IsValid)
	assert.False(t, lenient.PeriodConsistent)

	options := DefaultValidationOptions()
	options.TreatWarningsAsErrors = true
	strict := NewValidatorWithOptions(options, zerolog.Nop()).ValidateRecord(rec)
	assert.False(t, strict.IsValid)
	assert.Empty(t, strict.Error)
}
