package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"atlascrm/internal/pricing"
)

// StringList is a []string persisted as a JSON text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	return string(b), err
}

func (l *StringList) Scan(src any) error {
	return scanJSON(src, (*[]string)(l))
}

// TaxList is a company's tax configuration persisted as JSON.
type TaxList []pricing.TaxDefinition

func (l TaxList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]pricing.TaxDefinition(l))
	return string(b), err
}

func (l *TaxList) Scan(src any) error {
	return scanJSON(src, (*[]pricing.TaxDefinition)(l))
}

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}
