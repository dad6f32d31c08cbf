package models

import (
	"bytes"
	"encoding/json"
)

// Dataset scalars may be strings, numbers or booleans. Records decode field
// by field: scalars keep their literal text and anything else reads as absent.

type fields map[string]json.RawMessage

func decodeFields(data []byte) (fields, error) {
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f, nil
}

// str returns the field as text. Numbers and booleans keep their JSON
// spelling; null, objects and arrays are absent.
func (f fields) str(key string) *string {
	raw := bytes.TrimSpace(f[key])
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return &s
	case 'n', '{', '[':
		return nil
	default:
		s := string(raw)
		return &s
	}
}

// list returns the field's array elements as raw JSON, or nil when the field
// is not an array.
func (f fields) list(key string) []json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(f[key], &items); err != nil {
		return nil
	}
	return items
}

// strs returns the scalar elements of an array field as text.
func (f fields) strs(key string) []string {
	items := f.list(key)
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := (fields{"v": item}).str("v"); s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// UnmarshalJSON decodes a message, accepting non-string scalars such as
// numeric ids or epoch timestamps.
func (m *RawMessage) UnmarshalJSON(data []byte) error {
	f, err := decodeFields(data)
	if err != nil {
		return err
	}
	*m = RawMessage{
		ID:        f.str("id"),
		Sender:    f.str("sender"),
		Timestamp: f.str("timestamp"),
		Body:      f.str("body"),
	}
	return nil
}

// UnmarshalJSON decodes a thread. Message entries that are not objects are
// dropped; the rest of the thread is kept.
func (t *RawThread) UnmarshalJSON(data []byte) error {
	f, err := decodeFields(data)
	if err != nil {
		return err
	}
	*t = RawThread{
		ThreadID:    f.str("thread_id"),
		Topic:       f.str("topic"),
		Subject:     f.str("subject"),
		InitiatedBy: f.str("initiated_by"),
		OrderID:     f.str("order_id"),
		Product:     f.str("product"),
	}
	for _, item := range f.list("messages") {
		var m RawMessage
		if err := json.Unmarshal(item, &m); err != nil {
			continue
		}
		t.Messages = append(t.Messages, m)
	}
	return nil
}

// UnmarshalJSON decodes a customer. List fields that are not arrays read as
// empty.
func (c *CustomerRecord) UnmarshalJSON(data []byte) error {
	f, err := decodeFields(data)
	if err != nil {
		return err
	}
	*c = CustomerRecord{
		CustomerID:          f.str("customer_id"),
		Tier:                f.str("tier"),
		Entitlements:        f.strs("entitlements"),
		ShippingConstraints: f.strs("shipping_constraints"),
		Orders:              f.strs("orders"),
	}
	return nil
}
