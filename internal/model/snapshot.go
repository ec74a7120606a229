package model

// SnapshotVersion is the envelope version written by versioned exports.
const SnapshotVersion = 1

// SnapshotEnvelope is the versioned form of an export. Plain exports are a
// bare []ClassData, and both forms are accepted on import.
type SnapshotEnvelope struct {
	Version int         `json:"version"`
	Classes []ClassData `json:"classes"`
}
