package tasks

import (
	"github.com/Ebang213/PharmaForge-O/types"
)

// BuildSummary tallies issues by severity and type plus events by type.
// Pure aggregation over already-collected findings.
func BuildSummary(events []types.Event, issues []types.Issue) types.Summary {
	summary := types.Summary{
		TotalIssues:  len(issues),
		ByType:       make(map[string]int),
		EventsByType: make(map[string]int),
	}

	for _, issue := range issues {
		switch issue.Severity {
		case types.SeverityCritical:
			summary.Critical++
		case types.SeverityHigh:
			summary.High++
		case types.SeverityMedium:
			summary.Medium++
		case types.SeverityLow:
			summary.Low++
		}
		summary.ByType[issue.Type]++
	}

	for _, event := range events {
		eventType := event.EventType
		if eventType == "" {
			eventType = "unknown"
		}
		summary.EventsByType[eventType]++
	}

	return summary
}

// BuildRollups derives the product and container views of a document.
//
// Products come from GTINs in every event's epcList plus SGTIN parentIDs
// on AggregationEvents, with serialized EPCs counting one unit each and
// quantity elements contributing their stated quantity. Containers come
// from SSCCs in epcLists and AggregationEvent parentIDs, counting the
// items aggregated under each.
func BuildRollups(events []types.Event) ([]types.ProductRollup, []types.ContainerRollup) {
	productQty := make(map[string]float64)
	containerCount := make(map[string]int)
	var productOrder, containerOrder []string

	addProduct := func(gtin string, qty float64) {
		if gtin == "" {
			return
		}
		if _, ok := productQty[gtin]; !ok {
			productOrder = append(productOrder, gtin)
		}
		productQty[gtin] += qty
	}
	addContainer := func(sscc string, count int) {
		if sscc == "" {
			return
		}
		if _, ok := containerCount[sscc]; !ok {
			containerOrder = append(containerOrder, sscc)
		}
		containerCount[sscc] += count
	}

	for _, event := range events {
		for _, epc := range event.EPCList {
			addProduct(ParseGTINFromSGTIN(epc), 1)
			addContainer(ParseSSCCFromURNNoCheckDigit(epc), 0)
		}
		for _, qe := range event.QuantityList {
			addProduct(ParseGTINFromSGTIN(qe.EPCClass), qe.Quantity)
		}
		if event.EventType == types.AggregationEvent && event.ParentID != "" {
			addProduct(ParseGTINFromSGTIN(event.ParentID), 1)
			if event.Action == types.ActionAdd {
				addContainer(ParseSSCCFromURNNoCheckDigit(event.ParentID), len(event.ChildEPCs))
			} else {
				addContainer(ParseSSCCFromURNNoCheckDigit(event.ParentID), 0)
			}
		}
	}

	products := make([]types.ProductRollup, 0, len(productOrder))
	for _, gtin := range productOrder {
		products = append(products, types.ProductRollup{GTIN: gtin, Quantity: int(productQty[gtin])})
	}
	containers := make([]types.ContainerRollup, 0, len(containerOrder))
	for _, sscc := range containerOrder {
		containers = append(containers, types.ContainerRollup{SSCC: sscc, Count: containerCount[sscc]})
	}

	return products, containers
}
