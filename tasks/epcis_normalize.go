package tasks

import (
	"fmt"
	"time"

	"github.com/Ebang213/PharmaForge-O/types"
)

// Timestamp layouts accepted by the normalizer, tried in order. Offset-less
// layouts are accepted but reported as a medium issue, since DSCSA event
// times must carry an explicit UTC offset to be unambiguous.
var (
	offsetLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
	}
)

// NormalizeEvents maps raw event nodes into canonical events, reconciling
// the field variants between the XML and JSON parsers. It never drops an
// event: parse oddities degrade into issues attached to the event's index.
func NormalizeEvents(rawEvents []RawEvent) ([]types.Event, []types.Issue) {
	events := make([]types.Event, 0, len(rawEvents))
	issues := make([]types.Issue, 0)

	for _, raw := range rawEvents {
		event, eventIssues := normalizeEvent(raw)
		events = append(events, event)
		issues = append(issues, eventIssues...)
	}

	return events, issues
}

// normalizeEvent is the single constructor of canonical events
func normalizeEvent(raw RawEvent) (types.Event, []types.Issue) {
	var issues []types.Issue
	index := raw.Index

	if raw.Malformed != "" {
		issues = append(issues, types.Issue{
			Type:       types.IssueInvalidFormat,
			Severity:   types.SeverityHigh,
			Message:    fmt.Sprintf("Event %d could not be decoded: %s", index, raw.Malformed),
			EventIndex: &index,
		})
	}

	eventTime, timeIssue := parseEventTime(raw.Fields[fieldEventTime], index)
	if timeIssue != nil {
		issues = append(issues, *timeIssue)
	}

	recordTime := parseOptionalTime(raw.Fields[fieldRecordTime])

	event := types.Event{
		EventType:           raw.EventType,
		Action:              raw.Fields[fieldAction],
		EventTime:           eventTime,
		EventTimeZoneOffset: raw.Fields[fieldTimeZoneOffset],
		RecordTime:          recordTime,
		EPCList:             raw.Lists[listEPCs],
		QuantityList:        raw.Quantities,
		ParentID:            raw.Fields[fieldParentID],
		ChildEPCs:           raw.Lists[listChildEPCs],
		InputEPCList:        raw.Lists[listInputEPCs],
		OutputEPCList:       raw.Lists[listOutputEPC],
		BizStep:             raw.Fields[fieldBizStep],
		Disposition:         raw.Fields[fieldDisposition],
		ReadPoint:           raw.Fields[fieldReadPoint],
		BizLocation:         raw.Fields[fieldBizLocation],
		SourceList:          raw.Sources,
		DestinationList:     raw.Destinations,
		RawIndex:            index,
	}

	return event, issues
}

// parseEventTime parses an ISO 8601 event time permissively. An absent
// value is not an issue here (the rule validator owns that); an offset-less
// value parses as UTC with a medium issue; an unparseable value leaves the
// event without a usable time and reports the bad text.
func parseEventTime(value string, index int) (*time.Time, *types.Issue) {
	if value == "" {
		return nil, nil
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return &t, &types.Issue{
				Type:         types.IssueInvalidFormat,
				Severity:     types.SeverityMedium,
				FieldPath:    fieldEventTime,
				Message:      fmt.Sprintf("Event time %q has no explicit UTC offset", value),
				SuggestedFix: "Use ISO 8601 with an explicit offset, e.g. 2024-01-15T10:00:00-05:00",
				EventIndex:   &index,
			}
		}
	}

	return nil, &types.Issue{
		Type:         types.IssueInvalidFormat,
		Severity:     types.SeverityMedium,
		FieldPath:    fieldEventTime,
		Message:      fmt.Sprintf("Event time %q is not a valid ISO 8601 timestamp", value),
		SuggestedFix: "Use ISO 8601 format, e.g. 2024-01-15T10:00:00Z",
		EventIndex:   &index,
	}
}

// parseOptionalTime parses recordTime, which is best-effort metadata
func parseOptionalTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range append(offsetLayouts, naiveLayouts...) {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}
