package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/picklr-io/tfreconcile/internal/inventory"
	"github.com/picklr-io/tfreconcile/internal/ir"
	"github.com/picklr-io/tfreconcile/internal/logging"
	"github.com/picklr-io/tfreconcile/internal/state"
)

// Run is a single invocation of the reconciler. Everything the run touches
// hangs off it; there is no package-level state.
type Run struct {
	ID            uuid.UUID
	Snapshots     *state.Manager
	InventoryPath string
	Options       Options
	Reporter      Reporter

	// Now is the clock expiry is measured against.
	Now func() time.Time
}

// NewRun creates a Run with a fresh id.
func NewRun(snapshots *state.Manager, inventoryPath string, opts Options, reporter Reporter) *Run {
	return &Run{
		ID:            uuid.New(),
		Snapshots:     snapshots,
		InventoryPath: inventoryPath,
		Options:       opts,
		Reporter:      reporter,
		Now:           time.Now,
	}
}

// Execute backs up the live state, reconciles it and writes it back.
//
// state.ErrNotInitialized is returned untouched when there is no state yet.
// Any failure after the backup was taken leaves the backup in place.
func (r *Run) Execute(ctx context.Context) (*Plan, error) {
	log := logging.Logger().With("run_id", r.ID.String())

	if err := r.Snapshots.Backup(ctx); err != nil {
		return nil, err
	}
	log.Debugw("backup taken", "backup", r.Snapshots.BackupPath())

	st, err := r.Snapshots.Load(ctx)
	if err != nil {
		return nil, err
	}

	plan, err := r.reconcile(ctx, st)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("update cancelled: %w", err)
	}
	if err := r.Snapshots.Persist(ctx, st); err != nil {
		return nil, err
	}
	if err := r.Snapshots.Cleanup(ctx); err != nil {
		return nil, err
	}

	log.Debugw("state persisted", "state", r.Snapshots.Path(), "stay", plan.Summary.Stay, "move", plan.Summary.Move)
	return plan, nil
}

// Preview reconciles the live state in memory. Nothing is written and the
// backup lock is not taken.
func (r *Run) Preview(ctx context.Context) (*Plan, error) {
	st, err := r.Snapshots.ReadLive(ctx)
	if err != nil {
		return nil, err
	}
	return r.reconcile(ctx, st)
}

func (r *Run) reconcile(ctx context.Context, st *ir.State) (*Plan, error) {
	inv, err := inventory.Load(r.InventoryPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("reconcile cancelled: %w", err)
	}

	rec := NewReconciler(inv, r.Options, r.Reporter)
	if r.Now != nil {
		rec.now = r.Now
	}

	plan, err := rec.Reconcile(st)
	if err != nil {
		return nil, err
	}
	plan.RunID = r.ID.String()
	return plan, nil
}
