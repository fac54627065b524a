package tasks

import (
	"fmt"
	"sort"
	"time"

	"github.com/Ebang213/PharmaForge-O/types"
)

// custodyPhase is the lifecycle position of a single EPC
type custodyPhase int

const (
	phaseUncommissioned custodyPhase = iota
	phaseActive
	phaseAggregated
	phaseShipped
	phaseDecommissioned
)

// custodyState is the per-EPC state threaded through the analyzer walk.
// It is advanced functionally: advanceCustody takes the old state and one
// event and returns the new state plus any breaks that transition exposed.
type custodyState struct {
	Phase         custodyPhase
	Parent        string
	AggIndex      int
	TerminalIndex int
	LastIndex     int
	LastTime      *time.Time
	Seen          bool
}

// custodyRef is one appearance of an EPC in the event sequence. AsChild
// marks appearances through childEPCs rather than epcList.
type custodyRef struct {
	Event   types.Event
	AsChild bool
}

// DetectChainBreaks walks the custody history of every EPC referenced by
// the document and reports violations as ChainBreak records. It never
// fails the run: breaks are findings, not errors. Output ordering is
// deterministic, following first appearance of each EPC in the document.
func DetectChainBreaks(events []types.Event) []types.ChainBreak {
	history := make(map[string][]custodyRef)
	var epcOrder []string

	for i := range events {
		event := events[i]
		for _, epc := range event.EPCList {
			if _, ok := history[epc]; !ok {
				epcOrder = append(epcOrder, epc)
			}
			history[epc] = append(history[epc], custodyRef{Event: event})
		}
		for _, epc := range event.ChildEPCs {
			if _, ok := history[epc]; !ok {
				epcOrder = append(epcOrder, epc)
			}
			history[epc] = append(history[epc], custodyRef{Event: event, AsChild: true})
		}
	}

	breaks := make([]types.ChainBreak, 0)
	for _, epc := range epcOrder {
		refs := history[epc]
		sortByEventTime(refs)

		state := custodyState{Phase: phaseUncommissioned, AggIndex: -1, TerminalIndex: -1, LastIndex: -1}
		for _, ref := range refs {
			var found []types.ChainBreak
			state, found = advanceCustody(state, epc, ref)
			breaks = append(breaks, found...)
		}
	}

	return breaks
}

// sortByEventTime orders an EPC's appearances by event time, ties and
// untimed events keeping document order. Untimed events sort first so a
// missing timestamp never masks disorder among the timed ones.
func sortByEventTime(refs []custodyRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		ti, tj := refs[i].Event.EventTime, refs[j].Event.EventTime
		switch {
		case ti == nil && tj == nil:
			return refs[i].Event.RawIndex < refs[j].Event.RawIndex
		case ti == nil:
			return true
		case tj == nil:
			return false
		case ti.Equal(*tj):
			return refs[i].Event.RawIndex < refs[j].Event.RawIndex
		default:
			return ti.Before(*tj)
		}
	})
}

// advanceCustody applies one event to an EPC's custody state
func advanceCustody(state custodyState, epc string, ref custodyRef) (custodyState, []types.ChainBreak) {
	var breaks []types.ChainBreak
	event := ref.Event
	index := event.RawIndex

	if !state.Seen {
		if !isCommissioningAdd(event) {
			breaks = append(breaks, types.ChainBreak{
				Type:         types.BreakOrphanedObserve,
				EPC:          epc,
				EventIndices: []int{index},
				Description: fmt.Sprintf(
					"EPC %s first appears in %s %s with no prior commissioning event", epc,
					describeAction(event.Action), event.EventType),
			})
		}
		state.Phase = phaseActive
	} else if event.EventTime != nil && state.LastTime != nil && index < state.LastIndex {
		// After the time sort, a document-order inversion between two
		// timed events means a later event carried an earlier timestamp.
		breaks = append(breaks, types.ChainBreak{
			Type:         types.BreakTemporalDisorder,
			EPC:          epc,
			EventIndices: []int{index, state.LastIndex},
			Description: fmt.Sprintf(
				"EPC %s has an event with an earlier timestamp than a preceding event", epc),
		})
	}

	switch event.EventType {
	case types.AggregationEvent:
		if ref.AsChild {
			switch event.Action {
			case types.ActionAdd:
				state.Phase = phaseAggregated
				state.Parent = event.ParentID
				state.AggIndex = index
			case types.ActionDelete:
				if state.Phase != phaseAggregated || state.Parent != event.ParentID {
					indices := []int{index}
					if state.AggIndex >= 0 {
						indices = []int{state.AggIndex, index}
					}
					breaks = append(breaks, types.ChainBreak{
						Type:         types.BreakConflictingParent,
						EPC:          epc,
						EventIndices: indices,
						Description: fmt.Sprintf(
							"EPC %s disaggregated from %s but its recorded parent is %s",
							epc, event.ParentID, describeParent(state)),
					})
				}
				state.Phase = phaseActive
				state.Parent = ""
			}
		}
	case types.ObjectEvent:
		switch {
		case isTerminal(event):
			if state.Phase == phaseDecommissioned {
				breaks = append(breaks, types.ChainBreak{
					Type:         types.BreakDuplicateTerminal,
					EPC:          epc,
					EventIndices: []int{state.TerminalIndex, index},
					Description:  fmt.Sprintf("EPC %s decommissioned more than once", epc),
				})
			}
			state.Phase = phaseDecommissioned
			state.TerminalIndex = index
		case IsShippingBizStep(event.BizStep):
			state.Phase = phaseShipped
		case IsReceivingBizStep(event.BizStep):
			state.Phase = phaseActive
		}
	}

	state.Seen = true
	state.LastIndex = index
	state.LastTime = event.EventTime
	return state, breaks
}

func isCommissioningAdd(event types.Event) bool {
	return event.Action == types.ActionAdd && IsCommissioningBizStep(event.BizStep)
}

func isTerminal(event types.Event) bool {
	return event.Action == types.ActionDelete || IsDecommissioningBizStep(event.BizStep)
}

func describeAction(action string) string {
	if action == "" {
		return "an untyped"
	}
	return "a " + action
}

func describeParent(state custodyState) string {
	if state.Phase != phaseAggregated || state.Parent == "" {
		return "none"
	}
	return state.Parent
}
