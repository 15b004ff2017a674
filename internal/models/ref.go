package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ref is a reference to another document by id. The backend populates some
// references and not others, so on the wire a Ref is either a bare id string
// or an object carrying "_id". Once decoded it is always the bare id.
type Ref string

// String returns the bare id
func (r Ref) String() string {
	return string(r)
}

// UnmarshalJSON accepts both the bare and the populated shape
func (r *Ref) UnmarshalJSON(data []byte) error {
	id, err := ExtractID(data)
	if err != nil {
		return err
	}
	*r = Ref(id)
	return nil
}

// ExtractID normalizes a raw JSON id value. Strings are returned as is,
// objects yield their "_id" (or "id" when "_id" is absent), null yields "".
func ExtractID(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	switch trimmed[0] {
	case '"':
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return "", fmt.Errorf("failed to decode id string: %w", err)
		}
		return id, nil
	case '{':
		var doc struct {
			MongoID *Ref   `json:"_id"`
			ID      string `json:"id"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return "", fmt.Errorf("failed to decode populated reference: %w", err)
		}
		if doc.MongoID != nil && *doc.MongoID != "" {
			return doc.MongoID.String(), nil
		}
		return doc.ID, nil
	default:
		return "", fmt.Errorf("unsupported reference shape: %s", truncate(trimmed, 32))
	}
}

// RefList is an ordered list of references
type RefList []Ref

// Strings returns the bare ids
func (l RefList) Strings() []string {
	out := make([]string, len(l))
	for i, r := range l {
		out[i] = r.String()
	}
	return out
}

// Contains reports whether id is in the list
func (l RefList) Contains(id string) bool {
	for _, r := range l {
		if r.String() == id {
			return true
		}
	}
	return false
}

// RefsOf converts plain ids into a RefList
func RefsOf(ids []string) RefList {
	out := make(RefList, len(ids))
	for i, id := range ids {
		out[i] = Ref(id)
	}
	return out
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
