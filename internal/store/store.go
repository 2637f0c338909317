// Package store persists pool snapshots. The default backend keeps them in
// memory; the ddb subpackage stores them in DynamoDB.
package store

import (
	"context"
	"errors"

	"unstakepool/internal/pool"
)

// ErrNotFound is returned when no record exists for the requested ID.
var ErrNotFound = errors.New("record not found")

// Record is a persisted pool: its identity, timestamps, and state snapshot.
// Timestamps are unix seconds so every backend serializes them the same way.
type Record struct {
	ID        string        `json:"id" dynamodbav:"ID"`
	Name      string        `json:"name" dynamodbav:"Name"`
	CreatedAt int64         `json:"created_at" dynamodbav:"CreatedAt"`
	UpdatedAt int64         `json:"updated_at" dynamodbav:"UpdatedAt"`
	State     pool.Snapshot `json:"state" dynamodbav:"State"`
}

// SnapshotStore is the persistence surface the registry depends on.
type SnapshotStore interface {
	Put(ctx context.Context, record Record) error
	GetOne(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, id string) error
}
