package models

import "time"

// Record is implemented by every persisted entity
type Record interface {
	TableName() string
}

// Stamper is implemented by records carrying values assigned at insert time
type Stamper interface {
	StampCreate(now time.Time)
}

// Toucher is implemented by records carrying a modification timestamp
type Toucher interface {
	Touch(now time.Time)
}

// Timestamps holds the creation and optional modification stamps shared by most tables
type Timestamps struct {
	CreatedAt  time.Time  `gorm:"column:date_creation;not null"`
	ModifiedAt *time.Time `gorm:"column:date_modification"`
}

// StampCreate sets the creation time; the modification time stays empty until the first update
func (t *Timestamps) StampCreate(now time.Time) {
	t.CreatedAt = now
	t.ModifiedAt = nil
}

// Touch sets the modification time
func (t *Timestamps) Touch(now time.Time) {
	t.ModifiedAt = &now
}

// Created holds the creation stamp of rows that are never modified in place
type Created struct {
	CreatedAt time.Time `gorm:"column:date_creation;not null"`
}

func (c *Created) StampCreate(now time.Time) {
	c.CreatedAt = now
}

// defaultActive marks a new row active when the caller left the flag unset
func defaultActive(active **bool) {
	if *active == nil {
		on := true
		*active = &on
	}
}
