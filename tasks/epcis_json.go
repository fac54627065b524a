package tasks

import (
	"encoding/json"

	"github.com/Ebang213/PharmaForge-O/types"
)

// ParseJSONDocument extracts event nodes from an EPCIS 2.0 JSON/JSON-LD
// document in document order. Accepted shapes, matching what trading
// partners actually send:
//   - full document: {"epcisBody": {"eventList": [...]}}
//   - top-level event list: {"eventList": [...]}
//   - bare array of events: [...]
//   - events wrapper: {"events": [...]}
//   - a single event object: {"eventType": ...}
//
// Only input that is not valid JSON at all is a *FormatError. An entry in
// the event list that is not an object becomes a malformed RawEvent rather
// than aborting the document.
func ParseJSONDocument(content []byte) ([]RawEvent, error) {
	var data any
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, &FormatError{Reason: "parsing JSON", Err: err}
	}

	var list []any
	switch doc := data.(type) {
	case []any:
		list = doc
	case map[string]any:
		switch {
		case doc["epcisBody"] != nil:
			if body, ok := doc["epcisBody"].(map[string]any); ok {
				list, _ = body["eventList"].([]any)
			}
		case doc["eventList"] != nil:
			list, _ = doc["eventList"].([]any)
		case doc["events"] != nil:
			list, _ = doc["events"].([]any)
		case doc["eventType"] != nil || doc["type"] != nil:
			list = []any{doc}
		}
	default:
		return nil, &FormatError{Reason: "JSON document is not an object or array"}
	}

	events := make([]RawEvent, 0, len(list))
	for i, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			raw := newRawEvent("", i)
			raw.Malformed = "event entry is not a JSON object"
			events = append(events, raw)
			continue
		}
		events = append(events, jsonRawEvent(obj, i))
	}

	return events, nil
}

// jsonRawEvent lifts one JSON event object into a RawEvent
func jsonRawEvent(obj map[string]any, index int) RawEvent {
	// EPCIS 2.0 uses "type"; older exports use "eventType". Unknown values
	// are preserved verbatim for the rule validator to flag.
	eventType, _ := obj["type"].(string)
	if eventType == "" {
		eventType, _ = obj["eventType"].(string)
	}

	raw := newRawEvent(eventType, index)

	for _, field := range []string{
		fieldEventTime, fieldRecordTime, fieldTimeZoneOffset,
		fieldAction, fieldBizStep, fieldDisposition, fieldParentID,
	} {
		if v, ok := obj[field].(string); ok && v != "" {
			raw.Fields[field] = v
		}
	}

	// readPoint/bizLocation are {"id": "..."} objects in 2.0 but appear as
	// bare strings in some exports
	raw.Fields[fieldReadPoint] = jsonLocationID(obj[fieldReadPoint])
	raw.Fields[fieldBizLocation] = jsonLocationID(obj[fieldBizLocation])

	for _, list := range []string{listEPCs, listChildEPCs, listInputEPCs, listOutputEPC} {
		if values := jsonStringList(obj[list]); len(values) > 0 {
			raw.Lists[list] = values
		}
	}

	raw.Quantities = jsonQuantities(obj["quantityList"])
	raw.Sources = jsonParties(obj["sourceList"], "source")
	raw.Destinations = jsonParties(obj["destinationList"], "destination")

	return raw
}

func jsonLocationID(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		id, _ := v["id"].(string)
		return id
	}
	return ""
}

func jsonStringList(value any) []string {
	list, ok := value.([]any)
	if !ok {
		return nil
	}

	values := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			values = append(values, s)
		}
	}
	return values
}

func jsonQuantities(value any) []types.QuantityElement {
	list, ok := value.([]any)
	if !ok {
		return nil
	}

	var quantities []types.QuantityElement
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		epcClass, _ := obj["epcClass"].(string)
		qty, _ := obj["quantity"].(float64)
		uom, _ := obj["uom"].(string)
		quantities = append(quantities, types.QuantityElement{
			EPCClass: epcClass,
			Quantity: qty,
			UOM:      uom,
		})
	}
	return quantities
}

// jsonParties extracts sourceList/destinationList entries. EPCIS 2.0 keys
// the URI under "source"/"destination"; some exports use "value".
func jsonParties(value any, valueKey string) []types.Party {
	list, ok := value.([]any)
	if !ok {
		return nil
	}

	var parties []types.Party
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		partyType, _ := obj["type"].(string)
		uri, _ := obj[valueKey].(string)
		if uri == "" {
			uri, _ = obj["value"].(string)
		}
		parties = append(parties, types.Party{Type: partyType, Value: uri})
	}
	return parties
}
