package db

import "time"

// StoredValue is one JSON document of the durable key-value store.
type StoredValue struct {
	Key       string `gorm:"column:store_key;primaryKey;size:191"`
	Value     []byte
	UpdatedAt time.Time
}
