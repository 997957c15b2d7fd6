package character

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// IDField is the reserved member carrying the store-assigned identifier.
const IDField = "id"

// ErrInvalidFields reports a payload that is not a JSON object.
var ErrInvalidFields = errors.New("fields must be a JSON object")

// Fields holds caller-supplied attributes as raw JSON, in first-seen order.
type Fields = orderedmap.OrderedMap[string, json.RawMessage]

// NewFields returns an empty attribute set.
func NewFields() *Fields {
	return orderedmap.New[string, json.RawMessage]()
}

// ParseFields decodes a JSON object into an attribute set. Any id member is
// dropped, the store owns identifiers. Empty input is an empty object.
func ParseFields(data []byte) (*Fields, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewFields(), nil
	}
	fields, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	fields.Delete(IDField)
	return fields, nil
}

func decodeObject(data []byte) (*Fields, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) || len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrInvalidFields
	}
	fields := NewFields()
	if err := fields.UnmarshalJSON(trimmed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFields, err)
	}
	return fields, nil
}

// Character is the single domain record: a unique integer id plus arbitrary
// attributes stored verbatim.
type Character struct {
	ID     int
	Fields *Fields
}

// New builds a character from an id and a copy of fields. An id member in
// fields never overrides the supplied id.
func New(id int, fields *Fields) Character {
	c := Character{ID: id, Fields: cloneFields(fields)}
	c.Fields.Delete(IDField)
	return c
}

// Field returns the raw JSON value of a named attribute.
func (c Character) Field(name string) (json.RawMessage, bool) {
	if name == IDField {
		return json.RawMessage(strconv.Itoa(c.ID)), true
	}
	if c.Fields == nil {
		return nil, false
	}
	return c.Fields.Get(name)
}

// Merge returns a copy with fields laid over the existing attributes. Known
// members are replaced in place, new ones are appended, the id is kept.
func (c Character) Merge(fields *Fields) Character {
	merged := c.Clone()
	if fields == nil {
		return merged
	}
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == IDField {
			continue
		}
		merged.Fields.Set(pair.Key, cloneRaw(pair.Value))
	}
	return merged
}

// Clone returns a deep copy that shares no memory with c.
func (c Character) Clone() Character {
	return Character{ID: c.ID, Fields: cloneFields(c.Fields)}
}

// MarshalJSON encodes the id first, then every attribute in stored order.
func (c Character) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"id":`)
	buf.WriteString(strconv.Itoa(c.ID))
	if c.Fields != nil {
		for pair := c.Fields.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Key == IDField {
				continue
			}
			key, err := json.Marshal(pair.Key)
			if err != nil {
				return nil, err
			}
			buf.WriteByte(',')
			buf.Write(key)
			buf.WriteByte(':')
			if len(pair.Value) == 0 {
				buf.WriteString("null")
			} else {
				buf.Write(pair.Value)
			}
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a stored record. The id member must be present and
// must be an integral number; 1.0 and 1e2 are accepted.
func (c *Character) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	raw, ok := fields.Get(IDField)
	if !ok {
		return errors.New("character record has no id")
	}
	id, err := parseID(raw)
	if err != nil {
		return err
	}
	fields.Delete(IDField)
	c.ID = id
	c.Fields = fields
	return nil
}

func parseID(raw json.RawMessage) (int, error) {
	// json.Number also decodes quoted numbers, which are not ids.
	var num json.Number
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] == '"' {
		return 0, fmt.Errorf("character id %s is not an integer", raw)
	}
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0, fmt.Errorf("character id %s is not an integer", raw)
	}
	if n, err := strconv.Atoi(num.String()); err == nil {
		return n, nil
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, fmt.Errorf("character id %s is not an integer", raw)
	}
	return int(f), nil
}

func cloneFields(src *Fields) *Fields {
	dst := NewFields()
	if src == nil {
		return dst
	}
	for pair := src.Oldest(); pair != nil; pair = pair.Next() {
		dst.Set(pair.Key, cloneRaw(pair.Value))
	}
	return dst
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}
