package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(src any, dst any) error {
	switch s := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(s) == 0 {
			return nil
		}
		return json.Unmarshal(s, dst)
	case string:
		if s == "" {
			return nil
		}
		return json.Unmarshal([]byte(s), dst)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}

// Metadata is free-form order metadata stored as a JSON object.
type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return jsonValue(map[string]string(m))
}

func (m *Metadata) Scan(src any) error {
	out := Metadata{}
	if err := jsonScan(src, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

func (m Metadata) With(key, value string) Metadata {
	out := make(Metadata, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = value
	return out
}

type Specs map[string]any

func (s Specs) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	return jsonValue(map[string]any(s))
}

func (s *Specs) Scan(src any) error {
	out := Specs{}
	if err := jsonScan(src, &out); err != nil {
		return err
	}
	*s = out
	return nil
}

type AttributeSet []AttributeDef

func (a AttributeSet) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return jsonValue([]AttributeDef(a))
}

func (a *AttributeSet) Scan(src any) error {
	var out []AttributeDef
	if err := jsonScan(src, &out); err != nil {
		return err
	}
	*a = out
	return nil
}

type Components []BundleComponent

func (c Components) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return jsonValue([]BundleComponent(c))
}

func (c *Components) Scan(src any) error {
	var out []BundleComponent
	if err := jsonScan(src, &out); err != nil {
		return err
	}
	*c = out
	return nil
}
