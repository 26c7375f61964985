package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringArray persists a list of strings as a JSON text column. The
// session claims snapshot uses it for the amr method list.
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan expects a JSON array. Every row is written by Value, so any
// other shape in the column is an error, not something to coerce.
func (a *StringArray) Scan(src interface{}) error {
	if a == nil {
		return fmt.Errorf("models.StringArray: Scan on nil pointer")
	}
	var raw []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("models.StringArray: unsupported Scan type %T", src)
	}

	if s := strings.TrimSpace(string(raw)); s == "" || s == "null" {
		*a = nil
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("models.StringArray: %w", err)
	}
	*a = out
	return nil
}
