package dockerevents

import (
	"encoding/json"
	"fmt"
)

// Event is the subset of a Docker event-stream message the monitor pipeline
// cares about. Labels are the only container attribute the core reads.
type Event struct {
	Type   string // "container"
	Action string // start, stop, die, destroy
	ID     string
	Name   string
	Labels map[string]string
}

// rawEvent mirrors the JSON object shape emitted on the Docker event
// stream, restricted to the fields Event needs.
type rawEvent struct {
	Type   string `json:"Type"`
	Action string `json:"Action"`
	Actor  struct {
		ID         string            `json:"ID"`
		Attributes map[string]string `json:"Attributes"`
	} `json:"Actor"`
}

// ParseEvent decodes one Docker event-stream message. The stream is
// expected to carry one JSON object per message, but in practice it can
// arrive concatenated with a neighboring message or polluted with stray
// control characters from a misbehaving proxy in front of the socket. This
// tries, in order:
//  1. strict json.Unmarshal of the whole payload
//  2. strict unmarshal again after stripping C0 control characters
//  3. unmarshal of just the first balanced {...} substring found
//
// and gives up (returning an error) only if all three fail.
func ParseEvent(raw []byte) (Event, error) {
	if ev, err := decodeRawEvent(raw); err == nil {
		return ev, nil
	}

	stripped := stripC0Controls(raw)
	if ev, err := decodeRawEvent(stripped); err == nil {
		return ev, nil
	}

	if obj, ok := firstBalancedObject(stripped); ok {
		if ev, err := decodeRawEvent(obj); err == nil {
			return ev, nil
		}
	}

	return Event{}, fmt.Errorf("unparseable docker event payload (%d bytes)", len(raw))
}

func decodeRawEvent(raw []byte) (Event, error) {
	var re rawEvent
	if err := json.Unmarshal(raw, &re); err != nil {
		return Event{}, err
	}
	return Event{
		Type:   re.Type,
		Action: re.Action,
		ID:     re.Actor.ID,
		Name:   re.Actor.Attributes["name"],
		Labels: re.Actor.Attributes,
	}, nil
}

// stripC0Controls removes ASCII control characters (0x00-0x1F) other than
// the ones JSON itself permits inside whitespace (tab, newline, carriage
// return), which are otherwise harmless between tokens.
func stripC0Controls(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' {
			continue
		}
		out = append(out, b)
	}
	return out
}

// firstBalancedObject extracts the first top-level, brace-balanced {...}
// substring, tolerating braces embedded in quoted strings.
func firstBalancedObject(raw []byte) ([]byte, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i, b := range raw {
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					return raw[start : i+1], true
				}
			}
		}
	}

	return nil, false
}
