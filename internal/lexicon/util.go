// Package lexicon holds the subset of AT Protocol lexicon payloads consumed by
// the feed pipeline, decoded from XRPC JSON responses.
package lexicon

import (
	"encoding/json"
	"fmt"
	"time"
)

type typeExtractor struct {
	Type string `json:"$type"`
}

// TypeExtract returns the $type discriminator of a lexicon object.
func TypeExtract(b []byte) (string, error) {
	var te typeExtractor
	if err := json.Unmarshal(b, &te); err != nil {
		return "", err
	}
	return te.Type, nil
}

// Unknown holds a union member whose $type this package does not model.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func newUnknown(typ string, b []byte) *Unknown {
	raw := make(json.RawMessage, len(b))
	copy(raw, b)
	return &Unknown{Type: typ, Raw: raw}
}

func decodeVariant[T any](b []byte) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(b, v); err != nil {
		return nil, err
	}
	return v, nil
}

func marshalVariant(typ string, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	t, _ := json.Marshal(typ)
	fields["$type"] = t
	return json.Marshal(fields)
}

// ParseDatetime parses a lexicon datetime string.
func ParseDatetime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}

// StrongRef is a reference to a specific version of a record.
type StrongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}
