// Package repair provides orgctl's default JSON repair/validator: the
// minimal glue needed to run the runtime end to end, not one of the
// module's three shipped reference adapters. Models asked for a JSON
// object reply but reliably wrap it in prose or markdown fences; this
// extracts the first balanced {...} substring and unmarshals it leniently.
package repair

import (
	"encoding/json"
	"strings"

	oasis "github.com/orglang/orgruntime"
)

// Repair implements oasis.JSONRepair.
type Repair struct{}

// New creates a Repair.
func New() Repair { return Repair{} }

// Parse extracts and unmarshals the first JSON object found in reply. A
// reply with no valid JSON object yields the zero ParsedReply, which the
// agent loop treats as an invalid model output for that iteration.
func (Repair) Parse(reply string) oasis.ParsedReply {
	obj := firstJSONObject(reply)
	if obj == "" {
		return oasis.ParsedReply{}
	}

	var parsed oasis.ParsedReply
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return oasis.ParsedReply{}
	}
	return parsed
}

// firstJSONObject returns the first balanced-brace substring of s, or ""
// if none is found. It tolerates surrounding prose and markdown code
// fences, which models commonly wrap structured replies in.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// inside a string literal, braces don't count
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
