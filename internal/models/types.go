package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return marshalColumn(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	*a = JSONBStringArray{}
	return scanColumn(value, a)
}

// RecipeIngredient is one line of a saved recipe's ingredient list
type RecipeIngredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

// RecipeIngredients is stored as a JSON array column
type RecipeIngredients []RecipeIngredient

// Value implements the driver.Valuer interface
func (r RecipeIngredients) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "[]", nil
	}
	return marshalColumn(r)
}

// Scan implements the sql.Scanner interface
func (r *RecipeIngredients) Scan(value interface{}) error {
	*r = RecipeIngredients{}
	return scanColumn(value, r)
}

// Names returns the ingredient names in order
func (r RecipeIngredients) Names() []string {
	names := make([]string, len(r))
	for i, ing := range r {
		names[i] = ing.Name
	}
	return names
}

func marshalColumn(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanColumn(value interface{}, dest interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
