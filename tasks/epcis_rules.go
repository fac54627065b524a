package tasks

import (
	"fmt"

	"github.com/Ebang213/PharmaForge-O/types"
)

var knownEventTypes = map[string]bool{
	types.ObjectEvent:         true,
	types.AggregationEvent:    true,
	types.TransactionEvent:    true,
	types.TransformationEvent: true,
}

var knownActions = map[string]bool{
	types.ActionAdd:     true,
	types.ActionObserve: true,
	types.ActionDelete:  true,
}

// actionRequired lists the event types where an action is mandatory.
// TransformationEvents carry no action in EPCIS.
var actionRequired = map[string]bool{
	types.ObjectEvent:      true,
	types.AggregationEvent: true,
	types.TransactionEvent: true,
}

// eventRule is one entry in the validation table. Violations returns a
// message per violation found on the event, so a rule can flag a scalar
// field once or a list field per offending member. Rules are independent
// and never short-circuit each other.
type eventRule struct {
	Name         string
	IssueType    string
	Severity     types.Severity
	FieldPath    string
	SuggestedFix string
	Violations   func(types.Event) []string
}

func one(msg string) []string { return []string{msg} }

var validationRules = []eventRule{
	{
		Name:         "missing_event_time",
		IssueType:    types.IssueMissingField,
		Severity:     types.SeverityHigh,
		FieldPath:    "eventTime",
		SuggestedFix: "Add eventTime in ISO 8601 format",
		Violations: func(e types.Event) []string {
			if e.EventTime == nil {
				return one("Event time is required for DSCSA compliance")
			}
			return nil
		},
	},
	{
		Name:         "missing_event_type",
		IssueType:    types.IssueMissingField,
		Severity:     types.SeverityHigh,
		FieldPath:    "eventType",
		SuggestedFix: "Add eventType as one of: ObjectEvent, AggregationEvent, TransactionEvent, TransformationEvent",
		Violations: func(e types.Event) []string {
			if e.EventType == "" {
				return one("Event type is required")
			}
			return nil
		},
	},
	{
		Name:         "invalid_event_type",
		IssueType:    types.IssueInvalidValue,
		Severity:     types.SeverityHigh,
		FieldPath:    "eventType",
		SuggestedFix: "Use one of: ObjectEvent, AggregationEvent, TransactionEvent, TransformationEvent",
		Violations: func(e types.Event) []string {
			if e.EventType != "" && !knownEventTypes[e.EventType] {
				return one(fmt.Sprintf("Invalid event type: %s", e.EventType))
			}
			return nil
		},
	},
	{
		Name:         "missing_action",
		IssueType:    types.IssueMissingField,
		Severity:     types.SeverityHigh,
		FieldPath:    "action",
		SuggestedFix: "Add action as one of: ADD, OBSERVE, DELETE",
		Violations: func(e types.Event) []string {
			if actionRequired[e.EventType] && e.Action == "" {
				return one(fmt.Sprintf("Action is required for %s", e.EventType))
			}
			return nil
		},
	},
	{
		Name:         "invalid_action",
		IssueType:    types.IssueInvalidValue,
		Severity:     types.SeverityMedium,
		FieldPath:    "action",
		SuggestedFix: "Use one of: ADD, OBSERVE, DELETE",
		Violations: func(e types.Event) []string {
			if actionRequired[e.EventType] && e.Action != "" && !knownActions[e.Action] {
				return one(fmt.Sprintf("Invalid action: %s", e.Action))
			}
			return nil
		},
	},
	{
		Name:         "no_item_identifiers",
		IssueType:    types.IssueMissingField,
		Severity:     types.SeverityCritical,
		FieldPath:    "epcList",
		SuggestedFix: "Add epcList with serialized product identifiers",
		Violations: func(e types.Event) []string {
			if isItemBearing(e.EventType) && len(e.EPCList) == 0 && len(e.QuantityList) == 0 {
				return one("At least one EPC or quantity element is required for DSCSA serialization")
			}
			return nil
		},
	},
	{
		Name:         "transformation_without_io",
		IssueType:    types.IssueMissingField,
		Severity:     types.SeverityCritical,
		FieldPath:    "inputEPCList",
		SuggestedFix: "Add inputEPCList and outputEPCList describing the transformation",
		Violations: func(e types.Event) []string {
			if e.EventType == types.TransformationEvent &&
				len(e.InputEPCList) == 0 && len(e.OutputEPCList) == 0 &&
				len(e.EPCList) == 0 && len(e.QuantityList) == 0 {
				return one("TransformationEvent has no input or output identifiers")
			}
			return nil
		},
	},
	{
		Name:         "invalid_epc_format",
		IssueType:    types.IssueInvalidFormat,
		Severity:     types.SeverityMedium,
		FieldPath:    "epcList",
		SuggestedFix: "Use URN format: urn:epc:id:sgtin:CompanyPrefix.ItemRef.SerialNumber",
		Violations: func(e types.Event) []string {
			var msgs []string
			for _, epc := range e.EPCList {
				if !IsValidEPCFormat(epc) {
					msgs = append(msgs, fmt.Sprintf("Invalid EPC format: %s", epc))
				}
			}
			return msgs
		},
	},
	{
		Name:         "aggregation_without_children",
		IssueType:    types.IssueMissingField,
		Severity:     types.SeverityHigh,
		FieldPath:    "childEPCs",
		SuggestedFix: "Add childEPCs listing the items aggregated under the parent",
		Violations: func(e types.Event) []string {
			if e.EventType == types.AggregationEvent &&
				(e.Action == types.ActionAdd || e.Action == types.ActionObserve) &&
				len(e.ChildEPCs) == 0 && len(e.QuantityList) == 0 {
				return one(fmt.Sprintf("AggregationEvent with action %s has no child EPCs", e.Action))
			}
			return nil
		},
	},
	{
		Name:         "missing_biz_step",
		IssueType:    types.IssueMissingField,
		Severity:     types.SeverityLow,
		FieldPath:    "bizStep",
		SuggestedFix: "Add bizStep (e.g., urn:epcglobal:cbv:bizstep:commissioning)",
		Violations: func(e types.Event) []string {
			if e.BizStep == "" {
				return one("Business step is recommended for full traceability")
			}
			return nil
		},
	},
	{
		Name:         "missing_disposition",
		IssueType:    types.IssueMissingField,
		Severity:     types.SeverityLow,
		FieldPath:    "disposition",
		SuggestedFix: "Add disposition (e.g., urn:epcglobal:cbv:disp:active)",
		Violations: func(e types.Event) []string {
			if e.Disposition == "" {
				return one("Disposition is recommended for supply chain visibility")
			}
			return nil
		},
	},
	{
		Name:         "missing_location",
		IssueType:    types.IssueMissingField,
		Severity:     types.SeverityLow,
		FieldPath:    "readPoint",
		SuggestedFix: "Add readPoint with GLN identifier",
		Violations: func(e types.Event) []string {
			if e.ReadPoint == "" && e.BizLocation == "" {
				return one("readPoint or bizLocation recommended for location tracking")
			}
			return nil
		},
	},
}

// isItemBearing reports whether the event type is expected to carry item
// identifiers directly. AggregationEvents identify items through parentID
// and childEPCs, TransformationEvents through input/output lists.
func isItemBearing(eventType string) bool {
	return eventType == types.ObjectEvent || eventType == types.TransactionEvent
}

// ValidateEvents runs every rule in the table against every event and
// collects the resulting issues. Rules are pure checks over the canonical
// event, so order within the table only affects issue ordering.
func ValidateEvents(events []types.Event) []types.Issue {
	issues := make([]types.Issue, 0)

	for i := range events {
		event := events[i]
		index := event.RawIndex
		for _, rule := range validationRules {
			for _, msg := range rule.Violations(event) {
				idx := index
				issues = append(issues, types.Issue{
					Type:         rule.IssueType,
					Severity:     rule.Severity,
					FieldPath:    rule.FieldPath,
					Message:      msg,
					SuggestedFix: rule.SuggestedFix,
					EventIndex:   &idx,
				})
			}
		}
	}

	return issues
}

// RuleNames returns the names of the rules in evaluation order
func RuleNames() []string {
	names := make([]string, 0, len(validationRules))
	for _, r := range validationRules {
		names = append(names, r.Name)
	}
	return names
}
