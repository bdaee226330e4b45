package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is the identifier of a JSON-RPC request, echoed back by the server in
// the matching response.
//
// JSON-RPC ID requirements:
//   - Must be a String, Number, or NULL if included
//   - Numbers should not contain fractional parts
//   - Server must reply with the same value in the Response object
//
// The zero value is the null ID.
type ID struct {
	intID *int
	strID string
}

// IDFromInt returns a numeric ID. Zero and negative values are preserved.
func IDFromInt(id int) ID {
	return ID{intID: &id}
}

// IDFromStr returns a string ID. The empty string is treated as null.
func IDFromStr(id string) ID {
	return ID{strID: id}
}

// IsEmpty returns true for the null ID.
func (id ID) IsEmpty() bool {
	return id.intID == nil && id.strID == ""
}

// String returns the ID as a string; the null ID is rendered as "null".
func (id ID) String() string {
	switch {
	case id.intID != nil:
		return strconv.Itoa(*id.intID)
	case id.strID != "":
		return id.strID
	default:
		return "null"
	}
}

// Equal reports whether both IDs serialize to the same JSON value.
func (id ID) Equal(other ID) bool {
	switch {
	case id.intID != nil && other.intID != nil:
		return *id.intID == *other.intID
	case id.intID != nil || other.intID != nil:
		return false
	default:
		return id.strID == other.strID
	}
}

func (id ID) MarshalJSON() ([]byte, error) {
	switch {
	case id.intID != nil:
		return []byte(strconv.Itoa(*id.intID)), nil
	case id.strID != "":
		return json.Marshal(id.strID)
	default:
		return []byte("null"), nil
	}
}

func (id *ID) UnmarshalJSON(data []byte) error {
	*id = ID{}

	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var intID int
	if err := json.Unmarshal(trimmed, &intID); err == nil {
		id.intID = &intID
		return nil
	}

	var strID string
	if err := json.Unmarshal(trimmed, &strID); err != nil {
		return fmt.Errorf("id must be a string, an integer or null: %w", err)
	}
	id.strID = strID
	return nil
}
