package entities

import (
	"encoding/json"
	"sort"
)

// InterfacePatch is a pending inventory update for a single interface.
// Fields maps inventory field names to their new values; a nil value
// clears the field server-side.
type InterfacePatch struct {
	ID     int
	Fields map[string]interface{}
}

// NewInterfacePatch creates an empty patch for the given interface ID.
func NewInterfacePatch(id int) InterfacePatch {
	return InterfacePatch{ID: id, Fields: make(map[string]interface{})}
}

// Set records a field change.
func (p InterfacePatch) Set(field string, value interface{}) {
	p.Fields[field] = value
}

// Empty reports whether the patch carries no changes.
func (p InterfacePatch) Empty() bool {
	return len(p.Fields) == 0
}

// Changed returns the sorted list of changed field names.
func (p InterfacePatch) Changed() []string {
	fields := make([]string, 0, len(p.Fields))
	for field := range p.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// MarshalJSON flattens the patch into the wire shape expected by a bulk
// PATCH: {"id": N, "<field>": <value>, ...}.
func (p InterfacePatch) MarshalJSON() ([]byte, error) {
	body := make(map[string]interface{}, len(p.Fields)+1)
	for field, value := range p.Fields {
		body[field] = value
	}
	body["id"] = p.ID
	return json.Marshal(body)
}
