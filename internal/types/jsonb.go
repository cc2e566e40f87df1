package types

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

var (
	_ sql.Scanner   = (*RecommendationList)(nil)
	_ driver.Valuer = RecommendationList(nil)
	_ sql.Scanner   = (*Snapshot)(nil)
	_ driver.Valuer = Snapshot{}
)

// scanJSONB scans a JSONB database value into dest. It handles nil, []byte,
// and string representations from different drivers.
func scanJSONB(dest any, value any) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("jsonb: unsupported scan type %T", value)
	}
	return json.Unmarshal(data, dest)
}

func valueJSONB(v any) (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Scan implements sql.Scanner.
func (rl *RecommendationList) Scan(value any) error {
	if value == nil {
		*rl = nil
		return nil
	}
	return scanJSONB(rl, value)
}

// Value implements driver.Valuer.
func (rl RecommendationList) Value() (driver.Value, error) {
	if rl == nil {
		return nil, nil
	}
	return json.Marshal([]Recommendation(rl))
}

// Scan implements sql.Scanner.
func (s *Snapshot) Scan(value any) error {
	return scanJSONB(s, value)
}

// Value implements driver.Valuer.
func (s Snapshot) Value() (driver.Value, error) {
	return valueJSONB(s)
}
