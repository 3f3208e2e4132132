package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BTreeMap/NimaCare/internal/models"
)

// encodeState serializes state for storage.
func encodeState(state *models.ConversationState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("state must not be nil")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conversation state: %w", err)
	}
	return data, nil
}

// decodeState deserializes a stored state.
func decodeState(data []byte) (*models.ConversationState, error) {
	var state models.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation state: %w", err)
	}
	if state.Facts.Completed == nil {
		state.Facts.Completed = map[models.Stage]bool{}
	}
	return &state, nil
}

// now returns the current time in UTC so stored timestamps compare consistently.
func now() time.Time {
	return time.Now().UTC()
}
