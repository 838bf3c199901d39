package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// EffectivenessTier rates how well a reference example's positioning
// performed. Values are EffectivenessHigh, EffectivenessMedium and
// EffectivenessLow.
type EffectivenessTier string

const (
	EffectivenessHigh   EffectivenessTier = "high"
	EffectivenessMedium EffectivenessTier = "medium"
	EffectivenessLow    EffectivenessTier = "low"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// StringMap is a custom type for storing string maps as JSON in the database.
type StringMap map[string]string

// Value implements the driver.Valuer interface for database serialization.
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = StringMap{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringMap")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, m)
}

// ReferenceExample is one previously analyzed company in the reference
// library. Rows are created by offline ingestion and are read-only at
// serving time; the embedding vector itself lives in the vector store,
// keyed by the same ID.
type ReferenceExample struct {
	ID               string            `gorm:"type:text;primaryKey" json:"id"`
	Company          string            `gorm:"type:text;not null;index:idx_examples_company" json:"company"`
	Tagline          string            `gorm:"type:text" json:"tagline"`
	AnchorType       AnchorType        `gorm:"type:text" json:"anchor_type"`
	PrimaryAnchor    string            `gorm:"type:text" json:"primary_anchor"`
	Problem          string            `gorm:"type:text" json:"problem"`
	Differentiator   string            `gorm:"type:text" json:"differentiator"`
	Industry         string            `gorm:"type:text;index:idx_examples_industry" json:"industry"`
	Effectiveness    EffectivenessTier `gorm:"type:text" json:"effectiveness"`
	ICPSegments      StringArray       `gorm:"type:text" json:"icp_segments"`
	Tags             StringArray       `gorm:"type:text" json:"tags"`
	Tone             string            `gorm:"type:text" json:"tone"`
	Structure        string            `gorm:"type:text" json:"structure"`
	SecondaryAnchors StringMap         `gorm:"type:text" json:"secondary_anchors"`
	CreatedAt        time.Time         `json:"created_at"`
}

// TableName returns the database table name for ReferenceExample.
func (ReferenceExample) TableName() string {
	return "reference_examples"
}

// ScoredExample pairs a reference example with its retrieval similarity.
type ScoredExample struct {
	ReferenceExample
	Similarity float32 `json:"similarity"`
}
