package saga

import "encoding/json"

// marshalOrEmpty marshals v, returning an empty JSON object rather than an
// error on failure since outbox payloads are best-effort diagnostic
// context, never the source of truth for saga state.
func marshalOrEmpty(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return b
}
