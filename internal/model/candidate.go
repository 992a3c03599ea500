package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Candidate is a raw BOQ line item produced by the upstream extraction step.
// Every field may be empty; the resolver treats empty values as unknown.
type Candidate struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Unit     string  `json:"unit"`
	Quantity float64 `json:"quantity"`
	TypeID   string  `json:"typeId,omitempty"`
}

// looseCandidate is the wire shape extraction actually produces: quantity
// may be a number, a string or null, and text fields are not always strings.
type looseCandidate struct {
	Name     json.RawMessage `json:"name"`
	Category json.RawMessage `json:"category"`
	Unit     json.RawMessage `json:"unit"`
	Quantity json.RawMessage `json:"quantity"`
	TypeID   json.RawMessage `json:"typeId"`
	TypeIDv2 json.RawMessage `json:"type_id"`
}

// UnmarshalJSON decodes a line item without failing on badly typed fields.
// A quantity that is not a finite number becomes 0.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var raw looseCandidate
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Candidate{
		Name:     looseString(raw.Name),
		Category: looseString(raw.Category),
		Unit:     looseString(raw.Unit),
		Quantity: looseQuantity(raw.Quantity),
		TypeID:   looseString(raw.TypeID),
	}
	if c.TypeID == "" {
		c.TypeID = looseString(raw.TypeIDv2)
	}
	return nil
}

// ParseQuantity parses a quantity as written in a BOQ ("1,250.5", " 12 ").
// Anything unparseable or non-finite yields 0.
func ParseQuantity(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func looseQuantity(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0
		}
		return ParseQuantity(s)
	}
	// Numbers arrive as their literal text; null, bools and objects do not
	// parse and fall through to 0.
	return ParseQuantity(string(raw))
}

func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(raw)
	}
	return ""
}
