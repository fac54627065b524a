package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ebang213/PharmaForge-O/types"
)

func TestNormalizeEvents_FieldMapping(t *testing.T) {
	raw := newRawEvent("ObjectEvent", 0)
	raw.Fields[fieldEventTime] = "2024-12-15T10:00:00-05:00"
	raw.Fields[fieldTimeZoneOffset] = "-05:00"
	raw.Fields[fieldAction] = "ADD"
	raw.Fields[fieldBizStep] = "urn:epcglobal:cbv:bizstep:commissioning"
	raw.Fields[fieldDisposition] = "urn:epcglobal:cbv:disp:active"
	raw.Fields[fieldReadPoint] = "urn:epc:id:sgln:0614141.00001.0"
	raw.Lists[listEPCs] = []string{"urn:epc:id:sgtin:0614141.107346.1001"}
	raw.Quantities = []types.QuantityElement{{EPCClass: "urn:epc:class:lgtin:0614141.107346.LOT1", Quantity: 10}}

	events, issues := NormalizeEvents([]RawEvent{raw})
	require.Len(t, events, 1)
	assert.Empty(t, issues)

	event := events[0]
	assert.Equal(t, "ObjectEvent", event.EventType)
	assert.Equal(t, "ADD", event.Action)
	assert.Equal(t, 0, event.RawIndex)
	assert.Equal(t, "-05:00", event.EventTimeZoneOffset)
	assert.Equal(t, "urn:epc:id:sgln:0614141.00001.0", event.ReadPoint)
	assert.Equal(t, []string{"urn:epc:id:sgtin:0614141.107346.1001"}, event.EPCList)
	require.Len(t, event.QuantityList, 1)

	require.NotNil(t, event.EventTime)
	expected := time.Date(2024, 12, 15, 10, 0, 0, 0, time.FixedZone("", -5*3600))
	assert.True(t, event.EventTime.Equal(expected))
}

func TestNormalizeEvents_OffsetlessTimestamp(t *testing.T) {
	raw := newRawEvent("ObjectEvent", 3)
	raw.Fields[fieldEventTime] = "2024-12-15T10:00:00"

	events, issues := NormalizeEvents([]RawEvent{raw})
	require.Len(t, events, 1)
	require.NotNil(t, events[0].EventTime)

	require.Len(t, issues, 1)
	assert.Equal(t, types.IssueInvalidFormat, issues[0].Type)
	assert.Equal(t, types.SeverityMedium, issues[0].Severity)
	assert.Equal(t, "eventTime", issues[0].FieldPath)
	require.NotNil(t, issues[0].EventIndex)
	assert.Equal(t, 3, *issues[0].EventIndex)
}

func TestNormalizeEvents_UnparseableTimestamp(t *testing.T) {
	raw := newRawEvent("ObjectEvent", 0)
	raw.Fields[fieldEventTime] = "yesterday at noon"

	events, issues := NormalizeEvents([]RawEvent{raw})
	require.Len(t, events, 1)
	assert.Nil(t, events[0].EventTime)

	require.Len(t, issues, 1)
	assert.Equal(t, types.IssueInvalidFormat, issues[0].Type)
	assert.Equal(t, types.SeverityMedium, issues[0].Severity)
}

func TestNormalizeEvents_MissingTimestampIsNotAnIssueHere(t *testing.T) {
	// The rule table owns missing-field reporting; the normalizer only
	// reports values it could not interpret.
	raw := newRawEvent("ObjectEvent", 0)

	events, issues := NormalizeEvents([]RawEvent{raw})
	require.Len(t, events, 1)
	assert.Nil(t, events[0].EventTime)
	assert.Empty(t, issues)
}

func TestNormalizeEvents_MalformedEntry(t *testing.T) {
	raw := newRawEvent("", 1)
	raw.Malformed = "event entry is not a JSON object"

	events, issues := NormalizeEvents([]RawEvent{raw})
	require.Len(t, events, 1)

	require.Len(t, issues, 1)
	assert.Equal(t, types.IssueInvalidFormat, issues[0].Type)
	assert.Equal(t, types.SeverityHigh, issues[0].Severity)
	require.NotNil(t, issues[0].EventIndex)
	assert.Equal(t, 1, *issues[0].EventIndex)
}

func TestNormalizeEvents_UnknownEventTypePreserved(t *testing.T) {
	raw := newRawEvent("MysteryEvent", 0)
	raw.Fields[fieldEventTime] = "2024-12-15T10:00:00Z"

	events, issues := NormalizeEvents([]RawEvent{raw})
	require.Len(t, events, 1)
	assert.Equal(t, "MysteryEvent", events[0].EventType)
	assert.Empty(t, issues)
}

func TestNormalizeEvents_RecordTimeBestEffort(t *testing.T) {
	raw := newRawEvent("ObjectEvent", 0)
	raw.Fields[fieldEventTime] = "2024-12-15T10:00:00Z"
	raw.Fields[fieldRecordTime] = "not a timestamp"

	events, issues := NormalizeEvents([]RawEvent{raw})
	require.Len(t, events, 1)
	assert.Nil(t, events[0].RecordTime)
	assert.Empty(t, issues)
}
