package tasks

import "github.com/Ebang213/PharmaForge-O/types"

// Raw event field keys shared by the XML and JSON parsers. The parsers map
// their format's element/key names onto these so the normalizer only ever
// sees one vocabulary.
const (
	fieldEventTime      = "eventTime"
	fieldRecordTime     = "recordTime"
	fieldTimeZoneOffset = "eventTimeZoneOffset"
	fieldAction         = "action"
	fieldBizStep        = "bizStep"
	fieldDisposition    = "disposition"
	fieldReadPoint      = "readPoint"
	fieldBizLocation    = "bizLocation"
	fieldParentID       = "parentID"

	listEPCs      = "epcList"
	listChildEPCs = "childEPCs"
	listInputEPCs = "inputEPCList"
	listOutputEPC = "outputEPCList"
)

// RawEvent is one event node lifted out of a document before
// normalization: the detected event type tag, the node's position in
// document order, and flat field/list maps. A node that could not be
// decoded at all still yields a RawEvent with Malformed set, so one bad
// event never aborts the document.
type RawEvent struct {
	EventType    string
	Index        int
	Fields       map[string]string
	Lists        map[string][]string
	Quantities   []types.QuantityElement
	Sources      []types.Party
	Destinations []types.Party
	Malformed    string
}

func newRawEvent(eventType string, index int) RawEvent {
	return RawEvent{
		EventType: eventType,
		Index:     index,
		Fields:    make(map[string]string),
		Lists:     make(map[string][]string),
	}
}
