package main

import (
	"encoding/json"
	"errors"
	"log"

	"leadform/constants"

	"gorm.io/gorm"
)

// SnapshotStore persists the effective form settings across restarts under a
// single fixed key. It never returns errors: a missing, unreadable, or
// malformed snapshot is reported as absent, and a failed write leaves the
// in-memory configuration standing.
type SnapshotStore struct {
	db *gorm.DB
}

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Load reads the persisted snapshot. The second return value is false when no
// snapshot exists or the stored blob does not parse as a settings object.
func (p *SnapshotStore) Load() (*FormSettings, bool) {
	var row SettingsSnapshot
	result := p.db.Where("key = ?", constants.SETTINGS_SNAPSHOT_KEY).First(&row)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			log.Printf("WARN: Failed to read settings snapshot: %v", result.Error)
		}
		return nil, false
	}

	var settings FormSettings
	if err := json.Unmarshal(row.Data, &settings); err != nil {
		log.Printf("WARN: Discarding unparsable settings snapshot: %v", err)
		return nil, false
	}
	return &settings, true
}

// Save serializes the full effective settings (locked fields included, for
// transparency) and overwrites the prior snapshot.
func (p *SnapshotStore) Save(settings FormSettings) {
	data, err := json.Marshal(settings)
	if err != nil {
		log.Printf("WARN: Failed to serialize settings snapshot: %v", err)
		return
	}

	var row SettingsSnapshot
	result := p.db.Where("key = ?", constants.SETTINGS_SNAPSHOT_KEY).First(&row)
	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			log.Printf("WARN: Failed to read settings snapshot before save: %v", result.Error)
			return
		}
		row = SettingsSnapshot{Key: constants.SETTINGS_SNAPSHOT_KEY, Data: data}
		if result := p.db.Create(&row); result.Error != nil {
			log.Printf("WARN: Failed to store settings snapshot: %v", result.Error)
		}
		return
	}

	row.Data = data
	if result := p.db.Save(&row); result.Error != nil {
		log.Printf("WARN: Failed to store settings snapshot: %v", result.Error)
	}
}
