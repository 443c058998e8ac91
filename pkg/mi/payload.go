package mi

import "strconv"

// Typed accessors for MI payloads. MI has no types on the wire: every
// leaf value is a string and containers are tuples or lists, so payloads
// decode to map[string]interface{}, []interface{} and string.

// String returns the string at key, or "".
func String(payload map[string]interface{}, key string) string {
	s, _ := payload[key].(string)
	return s
}

// Int returns the integer at key, or 0 if absent or unparseable.
func Int(payload map[string]interface{}, key string) int {
	s, ok := payload[key].(string)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Map returns the tuple at key, or nil.
func Map(payload map[string]interface{}, key string) map[string]interface{} {
	m, _ := payload[key].(map[string]interface{})
	return m
}

// List returns the list at key, or nil.
func List(payload map[string]interface{}, key string) []interface{} {
	l, _ := payload[key].([]interface{})
	return l
}

// Tuples flattens a list whose elements are tuples, unwrapping the
// single-key wrapper MI puts around repeated results (a stack is
// [frame={...},frame={...}], a breakpoint table body is [bkpt={...},...]).
func Tuples(list []interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(list))
	for _, el := range list {
		m, ok := el.(map[string]interface{})
		if !ok {
			continue
		}
		if len(m) == 1 {
			for _, v := range m {
				if inner, ok := v.(map[string]interface{}); ok {
					m = inner
				}
			}
		}
		out = append(out, m)
	}
	return out
}
