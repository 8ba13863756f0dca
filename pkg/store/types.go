package store

import (
	"bytes"
	"encoding/json"
)

// SessionRecord is a session known for a user. CreatedAt is nil for
// sessions recorded before timestamps were kept.
type SessionRecord struct {
	ID        string  `json:"id"`
	CreatedAt *string `json:"created_at"`
}

// UnmarshalJSON accepts both the object form and the older bare string form.
func (r *SessionRecord) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = SessionRecord{ID: id}
		return nil
	}

	type plain SessionRecord
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = SessionRecord(p)
	return nil
}

// PinnedFact is a user-approved fact that is always sent to the model.
type PinnedFact struct {
	Text   string   `json:"text"`
	Source *string  `json:"source"`
	Rating *float64 `json:"rating"`
}

// UserData is the on-disk layout of a single user file.
type UserData struct {
	Sessions    []SessionRecord `json:"sessions"`
	PinnedFacts []PinnedFact    `json:"pinned_facts"`
}
