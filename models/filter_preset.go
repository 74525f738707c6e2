package models

import (
	"encoding/json"
	"time"
)

// FilterPreset is a named set of filters a user saved for reuse.
type FilterPreset struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"userId" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"not null"`
	Payload   string    `json:"-" gorm:"column:filters;type:text"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Filters Filters `json:"filters" gorm:"-"`
}

func (FilterPreset) TableName() string { return "filter_presets" }

// Encode serializes Filters into the stored payload.
func (p *FilterPreset) Encode() error {
	data, err := json.Marshal(p.Filters)
	if err != nil {
		return err
	}
	p.Payload = string(data)
	return nil
}

// Decode restores Filters from the stored payload.
func (p *FilterPreset) Decode() error {
	if p.Payload == "" {
		p.Filters = Filters{}
		return nil
	}
	return json.Unmarshal([]byte(p.Payload), &p.Filters)
}
