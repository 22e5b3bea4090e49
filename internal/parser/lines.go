package parser

import (
	"github.com/beevik/etree"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/xmltree"
)

// Owner attribute values of the header annotations.
const (
	OwnerPeriodStart = "DEB_PER"
	OwnerPeriodEnd   = "FIN_PER"
	OwnerHoursCount  = "NbHeuresFacturees"
)

// defaultUnit is assumed when ItemQuantity has no uom attribute.
const defaultUnit = "PCE"

func (x *Extractor) parseHeader(record *types.InvoiceRecord, header *etree.Element, loc *xmltree.Locator) {
	if v, ok := x.number(loc.Find(header, ".//TotalCharges"), "TotalCharges"); ok {
		record.TotalCharges = v
	}
	if v, ok := x.number(loc.Find(header, ".//TotalTax"), "TotalTax"); ok {
		record.TotalTax = v
	}
	if v, ok := x.number(loc.Find(header, ".//TotalAmount"), "TotalAmount"); ok {
		record.TotalAmount = v
	}
	if v, ok := x.number(loc.Find(header, ".//Tax/PercentQuantity"), "Tax/PercentQuantity"); ok {
		record.VATRate = v
	}

	record.DebPer = xmltree.Text(loc.FindByOwner(header, "Description", OwnerPeriodStart))
	record.FinPer = xmltree.Text(loc.FindByOwner(header, "Description", OwnerPeriodEnd))
}

func (x *Extractor) parseLine(line *etree.Element, loc *xmltree.Locator) types.LineItem {
	item := types.LineItem{
		ReasonCode:  xmltree.Text(loc.Find(line, ".//ReasonCode")),
		Description: xmltree.Text(loc.Find(line, ".//Description")),
		Element:     line,
	}

	if qty := loc.Find(line, ".//ItemQuantity"); qty != nil {
		item.Quantity, _ = x.number(qty, "ItemQuantity")
		item.Unit = qty.SelectAttrValue("uom", defaultUnit)
	}
	item.UnitPrice, _ = x.number(loc.Find(line, ".//Price/Amount"), "Price/Amount")
	item.Total, _ = x.number(loc.Find(line, ".//Charges/Charge/Total"), "Charges/Charge/Total")

	return item
}
