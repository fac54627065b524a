package tasks

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Ebang213/PharmaForge-O/types"
)

// FormatError is the fatal error class: the input could not be recognized
// as any supported EPCIS document structure, so no report can be produced.
// Everything else (missing fields, bad values, custody breaks) is reported
// as data inside a ValidationReport instead.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// utf8BOM is stripped before sniffing; some trading partners upload
// BOM-prefixed XML exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// jsonMarkers identify a JSON object as an EPCIS 2.0 document: an
// epcisBody/eventList structure, a JSON-LD @context, or a bare event.
var jsonMarkers = []string{
	`"epcisBody"`,
	`"eventList"`,
	`"@context"`,
	`"eventType"`,
	`"events"`,
}

// DetectFormat classifies raw document bytes as EPCIS 1.2 XML or EPCIS 2.0
// JSON. The declared content type (e.g. from an upload header) is used as a
// tie-breaker only; the bytes decide. Unrecognizable content is a
// *FormatError.
func DetectFormat(content []byte, declaredContentType string) (types.Format, error) {
	trimmed := bytes.TrimPrefix(content, utf8BOM)
	trimmed = bytes.TrimLeft(trimmed, " \t\r\n")

	if len(trimmed) == 0 {
		return "", &FormatError{Reason: "empty document"}
	}

	declared := strings.ToLower(declaredContentType)

	switch trimmed[0] {
	case '<':
		root := xmlRootName(trimmed)
		if strings.Contains(strings.ToLower(root), "epcis") {
			return types.FormatXML12, nil
		}
		return "", &FormatError{Reason: fmt.Sprintf("XML root element %q is not an EPCIS document", root)}

	case '{':
		head := string(trimmed)
		for _, marker := range jsonMarkers {
			if strings.Contains(head, marker) {
				return types.FormatJSON20, nil
			}
		}
		if strings.Contains(declared, "json") {
			return types.FormatJSON20, nil
		}
		return "", &FormatError{Reason: "JSON document has no epcisBody, eventList, or @context"}

	case '[':
		// Bare top-level array of events
		return types.FormatJSON20, nil
	}

	return "", &FormatError{Reason: "content is neither XML nor JSON"}
}

// xmlRootName returns the name of the first element in an XML byte slice,
// skipping the declaration, comments, and whitespace.
func xmlRootName(content []byte) string {
	s := string(content)

	for {
		start := strings.Index(s, "<")
		if start < 0 {
			return ""
		}
		rest := s[start:]

		switch {
		case strings.HasPrefix(rest, "<?"):
			end := strings.Index(rest, "?>")
			if end < 0 {
				return ""
			}
			s = rest[end+2:]
		case strings.HasPrefix(rest, "<!--"):
			end := strings.Index(rest, "-->")
			if end < 0 {
				return ""
			}
			s = rest[end+3:]
		default:
			end := start + 1
			for end < len(s) && s[end] != ' ' && s[end] != '>' && s[end] != '/' &&
				s[end] != '\n' && s[end] != '\r' && s[end] != '\t' {
				end++
			}
			return s[start+1 : end]
		}
	}
}
