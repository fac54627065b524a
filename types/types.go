package types

import "time"

// Format identifies the source document format of an EPCIS file
type Format string

const (
	FormatXML12  Format = "epcis_xml_1_2"
	FormatJSON20 Format = "epcis_json_2_0"
)

// Status is the overall validation outcome of an EPCIS document
type Status string

const (
	StatusValid      Status = "valid"
	StatusInvalid    Status = "invalid"
	StatusChainBreak Status = "chain_break"
)

// Severity ranks validation issues
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Known EPCIS event types
const (
	ObjectEvent         = "ObjectEvent"
	AggregationEvent    = "AggregationEvent"
	TransactionEvent    = "TransactionEvent"
	TransformationEvent = "TransformationEvent"
)

// EPCIS actions
const (
	ActionAdd     = "ADD"
	ActionObserve = "OBSERVE"
	ActionDelete  = "DELETE"
)

// QuantityElement represents a class-level quantity entry for products
// that are not individually serialized
type QuantityElement struct {
	EPCClass string  `json:"epc_class"`
	Quantity float64 `json:"quantity"`
	UOM      string  `json:"uom,omitempty"`
}

// Party represents a typed source or destination entry
type Party struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Event is the canonical event record produced by the normalizer.
// Both the XML 1.2 and JSON-LD 2.0 parsers feed into this shape, so the
// rule validator and chain analyzer never see format differences.
// Events are never mutated after construction.
type Event struct {
	EventType           string            `json:"event_type"`
	Action              string            `json:"action,omitempty"`
	EventTime           *time.Time        `json:"event_time,omitempty"`
	EventTimeZoneOffset string            `json:"event_timezone,omitempty"`
	RecordTime          *time.Time        `json:"record_time,omitempty"`
	EPCList             []string          `json:"epc_list,omitempty"`
	QuantityList        []QuantityElement `json:"quantity_list,omitempty"`
	ParentID            string            `json:"parent_id,omitempty"`
	ChildEPCs           []string          `json:"child_epcs,omitempty"`
	InputEPCList        []string          `json:"input_epc_list,omitempty"`
	OutputEPCList       []string          `json:"output_epc_list,omitempty"`
	BizStep             string            `json:"biz_step,omitempty"`
	Disposition         string            `json:"disposition,omitempty"`
	ReadPoint           string            `json:"read_point,omitempty"`
	BizLocation         string            `json:"biz_location,omitempty"`
	SourceList          []Party           `json:"source_list,omitempty"`
	DestinationList     []Party           `json:"destination_list,omitempty"`
	RawIndex            int               `json:"raw_index"`
}

// Issue types emitted by the normalizer and rule validator
const (
	IssueMissingField  = "missing_field"
	IssueInvalidFormat = "invalid_format"
	IssueInvalidValue  = "invalid_value"
)

// Issue represents a single validation finding against an event or the
// document as a whole
type Issue struct {
	Type         string   `json:"type"`
	Severity     Severity `json:"severity"`
	FieldPath    string   `json:"field_path,omitempty"`
	Message      string   `json:"message"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
	EventIndex   *int     `json:"event_index,omitempty"`
}

// BreakType classifies chain-of-custody breaks
type BreakType string

const (
	BreakTemporalDisorder  BreakType = "temporal_disorder"
	BreakDuplicateTerminal BreakType = "duplicate_terminal_action"
	BreakOrphanedObserve   BreakType = "orphaned_observation"
	BreakConflictingParent BreakType = "conflicting_custody"
)

// ChainBreak describes a custody violation for one EPC. EventIndices are
// the raw indices of the involved events, in document order.
type ChainBreak struct {
	Type         BreakType `json:"break_type"`
	EPC          string    `json:"epc"`
	EventIndices []int     `json:"event_indices"`
	Description  string    `json:"description"`
}

// Summary aggregates issue and event counts for a validation run
type Summary struct {
	TotalIssues  int            `json:"total_issues"`
	Critical     int            `json:"critical"`
	High         int            `json:"high"`
	Medium       int            `json:"medium"`
	Low          int            `json:"low"`
	ByType       map[string]int `json:"by_type"`
	EventsByType map[string]int `json:"events_by_type"`
}

// ProductRollup aggregates serialized items by GTIN across the document
type ProductRollup struct {
	GTIN     string `json:"gtin"`
	Quantity int    `json:"quantity"`
}

// ContainerRollup aggregates SSCC container references across the document
type ContainerRollup struct {
	SSCC  string `json:"sscc"`
	Count int    `json:"count"`
}

// ValidationReport is the result of validating one EPCIS document.
// It carries no timestamps or generated IDs, so validating the same bytes
// twice produces identical reports; the persistence layer adds run
// metadata when storing.
type ValidationReport struct {
	Format          Format            `json:"format"`
	Status          Status            `json:"status"`
	Events          []Event           `json:"events"`
	Issues          []Issue           `json:"issues"`
	ChainBreaks     []ChainBreak      `json:"chain_breaks"`
	EventCount      int               `json:"event_count"`
	ChainBreakCount int               `json:"chain_break_count"`
	Summary         Summary           `json:"summary"`
	Products        []ProductRollup   `json:"products,omitempty"`
	Containers      []ContainerRollup `json:"containers,omitempty"`
}
