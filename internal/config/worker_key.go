package config

import "time"

type WorkerKeyStruct struct {
	LedgerBatchSize    int
	LedgerBatchTimeout time.Duration
	SnapshotRetryDelay time.Duration
}

var WorkerKey = &WorkerKeyStruct{
	LedgerBatchSize:    50,
	LedgerBatchTimeout: 2 * time.Second,
	SnapshotRetryDelay: 2 * time.Second,
}
