// Package tracker persists the append-only acquisition logs and the resume
// cursor. The logs are the durable state of a run: records are deduplicated
// on append and never mutated or deleted, so any pass can be replayed.
//
// Single-writer only. Appends are scan-then-insert, which is safe for one
// process but carries no cross-process locking.
package tracker

import (
	"context"

	"github.com/arc-research/harvest-cli/internal/model"
)

// Store defines the persistence interface for the tracker logs.
// Every Append scans for an exact field-tuple duplicate first and returns
// written=false without side effects when one exists. Any error returned by
// a Store method is fatal to the caller: partial acquisition state is not
// safe to continue from.
type Store interface {
	// Acquisition logs
	AppendAttempt(ctx context.Context, a model.Attempt) (bool, error)
	AppendArtifact(ctx context.Context, a model.Artifact) (bool, error)
	Attempts(ctx context.Context) ([]model.Attempt, error)
	Artifacts(ctx context.Context) ([]model.Artifact, error)

	// Derived tables, rebuilt by reconciliation/verification passes.
	AppendMetadata(ctx context.Context, m model.MetadataRow) (bool, error)
	AppendMatching(ctx context.Context, m model.MatchingRow) (bool, error)
	AppendVerification(ctx context.Context, v model.VerificationRecord) (bool, error)
	Metadata(ctx context.Context) ([]model.MetadataRow, error)
	Matching(ctx context.Context) ([]model.MatchingRow, error)
	Verifications(ctx context.Context) ([]model.VerificationRecord, error)

	// Resume cursor: the last completed entity ordinal. StoreCursor never
	// regresses the stored value.
	Cursor(ctx context.Context) (int, error)
	StoreCursor(ctx context.Context, ordinal int) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
