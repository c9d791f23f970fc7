package service

import (
	"bytes"
	"encoding/json"

	"timer-sync-server/internal/domain"
)

// Richness counts the completed sessions recorded across every day of
// payload.history. Any structural problem (missing payload, history that
// is not an object, a day whose sessions are not an array) yields 0.
func Richness(doc *domain.Document) int {
	if doc == nil {
		return 0
	}

	rawPayload, ok := doc.Field("payload")
	if !ok || !isJSONObject(rawPayload) {
		return 0
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return 0
	}

	rawHistory, ok := payload["history"]
	if !ok || !isJSONObject(rawHistory) {
		return 0
	}

	var history map[string]json.RawMessage
	if err := json.Unmarshal(rawHistory, &history); err != nil {
		return 0
	}

	count := 0
	for _, rawSessions := range history {
		if !isJSONArray(rawSessions) {
			return 0
		}
		var sessions []json.RawMessage
		if err := json.Unmarshal(rawSessions, &sessions); err != nil {
			return 0
		}
		count += len(sessions)
	}

	return count
}

func isJSONObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func isJSONArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
