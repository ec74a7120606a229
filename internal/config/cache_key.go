package config

import (
	"fmt"
	"path/filepath"
)

// DefaultStorageKey is the fixed key the roster snapshot is stored under.
// It matches the key used by the browser-only version of the app so that
// existing exports keep their name.
const DefaultStorageKey = "miss_iong_class_data_v2"

type StoreKeyStruct struct{}

func NewStoreKeyStruct() *StoreKeyStruct {
	return &StoreKeyStruct{}
}

// SnapshotKey returns the key-value key for the roster snapshot.
func (r *StoreKeyStruct) SnapshotKey(storageKey string) string {
	return fmt.Sprintf("classpoints:%s", storageKey)
}

// SnapshotFile returns the path of the JSON snapshot file inside dataDir.
func (r *StoreKeyStruct) SnapshotFile(dataDir, storageKey string) string {
	return filepath.Join(dataDir, storageKey+".json")
}

// EventSubject returns the NATS subject for a given event type.
func (r *StoreKeyStruct) EventSubject(base, eventType string) string {
	return fmt.Sprintf("%s.%s", base, eventType)
}

var StoreKey = NewStoreKeyStruct()
