package tasks

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/Ebang213/PharmaForge-O/types"
)

// EPCIS 1.2 namespace. Documents may carry it, prefix it, or omit it
// entirely; matching is done on local element names so all three parse.
const EPCISNS = "urn:epcglobal:epcis:xsd:1"

// xmlEventTags are the event element names extracted from an EPCIS XML
// document, wherever they appear under the root.
var xmlEventTags = map[string]bool{
	types.ObjectEvent:         true,
	types.AggregationEvent:    true,
	types.TransactionEvent:    true,
	types.TransformationEvent: true,
}

// ParseXMLDocument walks an EPCIS 1.2 XML document and extracts its event
// nodes in document order. Only a document that is not well-formed XML at
// all is a *FormatError; events with missing or odd fields come back as
// RawEvents for the normalizer and validator to report on.
func ParseXMLDocument(content []byte) ([]RawEvent, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, &FormatError{Reason: "parsing XML", Err: err}
	}

	root := doc.Root()
	if root == nil {
		return nil, &FormatError{Reason: "XML document has no root element"}
	}

	events := make([]RawEvent, 0)
	collectXMLEvents(root, &events)
	return events, nil
}

// collectXMLEvents appends event nodes in document order. Event elements
// are not nested inside each other, so recursion stops at each event.
func collectXMLEvents(el *etree.Element, events *[]RawEvent) {
	for _, child := range el.ChildElements() {
		if xmlEventTags[child.Tag] {
			*events = append(*events, xmlRawEvent(child, len(*events)))
			continue
		}
		collectXMLEvents(child, events)
	}
}

// xmlRawEvent lifts one event element into a RawEvent
func xmlRawEvent(el *etree.Element, index int) RawEvent {
	raw := newRawEvent(el.Tag, index)

	for _, field := range []string{
		fieldEventTime, fieldRecordTime, fieldTimeZoneOffset,
		fieldAction, fieldBizStep, fieldDisposition, fieldParentID,
	} {
		if v := childText(el, field); v != "" {
			raw.Fields[field] = v
		}
	}

	// readPoint and bizLocation wrap their URI in an <id> child
	if rp := childElement(el, fieldReadPoint); rp != nil {
		raw.Fields[fieldReadPoint] = childText(rp, "id")
	}
	if bl := childElement(el, fieldBizLocation); bl != nil {
		raw.Fields[fieldBizLocation] = childText(bl, "id")
	}

	if epcs := epcValues(el, listEPCs); len(epcs) > 0 {
		raw.Lists[listEPCs] = epcs
	}
	if children := epcValues(el, listChildEPCs); len(children) > 0 {
		raw.Lists[listChildEPCs] = children
	}
	if in := epcValues(el, listInputEPCs); len(in) > 0 {
		raw.Lists[listInputEPCs] = in
	}
	if out := epcValues(el, listOutputEPC); len(out) > 0 {
		raw.Lists[listOutputEPC] = out
	}

	raw.Quantities = xmlQuantities(el)

	// sourceList/destinationList sit at the event root in 1.2 documents
	// from some partners and inside <extension> in others; check both.
	raw.Sources = xmlParties(el, "sourceList", "source")
	raw.Destinations = xmlParties(el, "destinationList", "destination")

	return raw
}

// childElement finds an immediate child by local tag name, ignoring any
// namespace prefix
func childElement(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			return child
		}
	}
	return nil
}

func childText(el *etree.Element, tag string) string {
	if child := childElement(el, tag); child != nil {
		return strings.TrimSpace(child.Text())
	}
	return ""
}

// epcValues extracts the <epc> texts under a list element
func epcValues(el *etree.Element, listTag string) []string {
	list := childElement(el, listTag)
	if list == nil {
		return nil
	}

	values := make([]string, 0, len(list.ChildElements()))
	for _, item := range list.ChildElements() {
		if item.Tag != "epc" {
			continue
		}
		if text := strings.TrimSpace(item.Text()); text != "" {
			values = append(values, text)
		}
	}
	return values
}

// xmlQuantities extracts quantityList/quantityElement entries. The list can
// sit at the event root or under <extension> depending on the exporter.
func xmlQuantities(el *etree.Element) []types.QuantityElement {
	list := childElement(el, "quantityList")
	if list == nil {
		if ext := childElement(el, "extension"); ext != nil {
			list = childElement(ext, "quantityList")
		}
	}
	if list == nil {
		return nil
	}

	var quantities []types.QuantityElement
	for _, qe := range list.ChildElements() {
		if qe.Tag != "quantityElement" {
			continue
		}
		qty, err := strconv.ParseFloat(childText(qe, "quantity"), 64)
		if err != nil {
			qty = 0
		}
		quantities = append(quantities, types.QuantityElement{
			EPCClass: childText(qe, "epcClass"),
			Quantity: qty,
			UOM:      childText(qe, "uom"),
		})
	}
	return quantities
}

// xmlParties extracts typed source/destination entries, checking both the
// event root and the <extension> wrapper
func xmlParties(el *etree.Element, listTag, itemTag string) []types.Party {
	list := childElement(el, listTag)
	if list == nil {
		if ext := childElement(el, "extension"); ext != nil {
			list = childElement(ext, listTag)
		}
	}
	if list == nil {
		return nil
	}

	var parties []types.Party
	for _, item := range list.ChildElements() {
		if item.Tag != itemTag {
			continue
		}
		parties = append(parties, types.Party{
			Type:  item.SelectAttrValue("type", ""),
			Value: strings.TrimSpace(item.Text()),
		})
	}
	return parties
}
