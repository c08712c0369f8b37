package mytypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonb column types
type (
	// ColumnList keeps the metric column order of a stored feature table.
	ColumnList []string
	// MetricMap holds the metric values of one block by column name.
	MetricMap map[string]float64
)

func (c *ColumnList) Scan(value any) error {
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("value is not []byte")
	}

	return json.Unmarshal(bytes, c)
}

func (c ColumnList) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (m *MetricMap) Scan(value any) error {
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("value is not []byte")
	}

	return json.Unmarshal(bytes, m)
}

func (m MetricMap) Value() (driver.Value, error) {
	return json.Marshal(m)
}
