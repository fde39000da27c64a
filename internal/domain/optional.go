package domain

import (
	"bytes"
	"encoding/json"
)

// OptionalID distinguishes an omitted JSON field (Set false) from an
// explicit null (Set true, Valid false) and a value.
type OptionalID struct {
	Set   bool
	Valid bool
	Value int64
}

func SomeID(id int64) OptionalID {
	return OptionalID{Set: true, Valid: true, Value: id}
}

func NullID() OptionalID {
	return OptionalID{Set: true}
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Valid = false
		o.Value = 0
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// Ptr returns the id or nil for null.
func (o OptionalID) Ptr() *int64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}
