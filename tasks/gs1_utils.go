package tasks

import (
	"fmt"
	"strings"
)

// CalculateGS1CheckDigit calculates the GS1 check digit for a numeric string.
// The input is the base identifier without the check digit.
func CalculateGS1CheckDigit(base string) string {
	if base == "" {
		return ""
	}

	// Alternate multipliers of 3 and 1 starting from the rightmost digit,
	// then check digit = (10 - (sum mod 10)) mod 10.
	sum := 0
	for i := len(base) - 1; i >= 0; i-- {
		digit := int(base[i] - '0')
		if digit < 0 || digit > 9 {
			continue
		}
		posFromRight := len(base) - 1 - i
		if posFromRight%2 == 0 {
			sum += digit * 3
		} else {
			sum += digit
		}
	}

	return fmt.Sprintf("%d", (10-(sum%10))%10)
}

// ParseGTINFromSGTIN extracts the 14-digit GTIN from an SGTIN URN or
// GS1 Digital Link. Supported inputs:
//   - urn:epc:id:sgtin:CompanyPrefix.ItemRef.Serial
//   - urn:epc:idpat:sgtin:CompanyPrefix.ItemRef.* (pattern format)
//   - https://id.gs1.org/01/GTIN14/...
//
// Returns the GTIN-14 with check digit, or "" if the input is not an SGTIN.
func ParseGTINFromSGTIN(sgtinURN string) string {
	if sgtinURN == "" {
		return ""
	}

	var parts string
	var found bool
	if parts, found = strings.CutPrefix(sgtinURN, "urn:epc:id:sgtin:"); !found {
		parts, found = strings.CutPrefix(sgtinURN, "urn:epc:idpat:sgtin:")
	}

	if found {
		segments := strings.Split(parts, ".")
		if len(segments) < 2 {
			return ""
		}

		companyPrefix := segments[0]
		indicatorAndItemRef := segments[1]

		// The indicator digit is the first character of the item ref field.
		// GTIN-13 = indicator + company prefix + item reference.
		indicator := "0"
		itemRef := indicatorAndItemRef
		if len(indicatorAndItemRef) > 0 {
			indicator = indicatorAndItemRef[0:1]
			itemRef = indicatorAndItemRef[1:]
		}

		gtin13 := normalizeToLength(indicator+companyPrefix+itemRef, 13)
		return gtin13 + CalculateGS1CheckDigit(gtin13)
	}

	// Digital Link format: https://id.gs1.org/01/00368462501658/21/123456
	if strings.Contains(sgtinURN, "/01/") {
		parts := strings.Split(sgtinURN, "/01/")
		if len(parts) > 1 {
			gtin := parts[1]
			if idx := strings.Index(gtin, "/"); idx > 0 {
				gtin = gtin[:idx]
			}
			if len(gtin) >= 14 {
				return gtin[:14]
			}
		}
	}

	return ""
}

// ParseSSCCFromURNNoCheckDigit extracts the 17-digit SSCC (extension digit +
// company prefix + serial reference, without check digit) from an SSCC URN
// or GS1 Digital Link. Digital Link SSCCs carry 18 digits; the check digit
// is stripped.
func ParseSSCCFromURNNoCheckDigit(ssccURN string) string {
	if ssccURN == "" {
		return ""
	}

	if parts, found := strings.CutPrefix(ssccURN, "urn:epc:id:sscc:"); found {
		segments := strings.Split(parts, ".")
		if len(segments) < 2 {
			return ""
		}
		return normalizeToLength(segments[0]+segments[1], 17)
	}

	if strings.Contains(ssccURN, "/00/") {
		parts := strings.Split(ssccURN, "/00/")
		if len(parts) > 1 {
			sscc := parts[1]
			if idx := strings.Index(sscc, "/"); idx > 0 {
				sscc = sscc[:idx]
			}
			if len(sscc) >= 18 {
				return sscc[:17]
			}
		}
	}

	return ""
}

// epcURNPrefixes are the identifier schemes accepted as well-formed EPCs.
// Instance-level urn:epc:id:* and class-level urn:epc:class:* both count.
var epcURNPrefixes = []string{
	"urn:epc:id:sgtin:",
	"urn:epc:id:sscc:",
	"urn:epc:id:sgln:",
	"urn:epc:id:grai:",
	"urn:epc:id:giai:",
	"urn:epc:class:lgtin:",
}

// IsValidEPCFormat reports whether an identifier looks like a well-formed
// EPC URN (urn:epc:id:* or urn:epc:class:*).
func IsValidEPCFormat(epc string) bool {
	if epc == "" {
		return false
	}
	for _, prefix := range epcURNPrefixes {
		if strings.HasPrefix(epc, prefix) {
			return true
		}
	}
	return strings.HasPrefix(epc, "urn:epc:id:") || strings.HasPrefix(epc, "urn:epc:class:")
}

// matchesBizStep checks a bizStep value against a CBV step name in its
// short, CBV URN, and GS1 Digital Link forms.
func matchesBizStep(bizStep, step string) bool {
	if bizStep == "" {
		return false
	}

	lower := strings.ToLower(bizStep)

	return lower == step ||
		strings.HasSuffix(lower, ":"+step) ||
		strings.HasSuffix(lower, "bizstep-"+step)
}

// IsShippingBizStep checks if a bizStep value represents a shipping step
func IsShippingBizStep(bizStep string) bool {
	return matchesBizStep(bizStep, "shipping")
}

// IsReceivingBizStep checks if a bizStep value represents a receiving step
func IsReceivingBizStep(bizStep string) bool {
	return matchesBizStep(bizStep, "receiving")
}

// IsCommissioningBizStep checks if a bizStep value represents a
// commissioning step
func IsCommissioningBizStep(bizStep string) bool {
	return matchesBizStep(bizStep, "commissioning")
}

// IsDecommissioningBizStep checks if a bizStep value represents a
// decommissioning step
func IsDecommissioningBizStep(bizStep string) bool {
	return matchesBizStep(bizStep, "decommissioning")
}

// normalizeToLength pads with leading zeros or truncates from the right
func normalizeToLength(s string, length int) string {
	if len(s) < length {
		return strings.Repeat("0", length-len(s)) + s
	}
	if len(s) > length {
		return s[:length]
	}
	return s
}
