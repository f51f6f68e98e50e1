// Package edit stages cell edits against stable references and commits
// them in per-document transactions. A commit tolerates per-cell failure:
// every edit that can land does land, and the rest are itemized in the
// report instead of aborting the batch.
package edit

import (
	"context"
	"database/sql"
	"strings"

	"github.com/draftgrid/cadsel/internal/db"
	"github.com/draftgrid/cadsel/internal/entity"
)

// PendingEdit is one staged cell change.
type PendingEdit struct {
	Ref      entity.Ref `json:"ref"`
	Column   string     `json:"column"`
	NewValue string     `json:"new_value"`
}

// CommitFailure records one edit that did not land.
type CommitFailure struct {
	Ref    entity.Ref `json:"ref"`
	Column string     `json:"column"`
	Reason string     `json:"reason"`
}

// Report summarizes a commit attempt.
type Report struct {
	Committed int             `json:"committed"`
	Failed    int             `json:"failed"`
	Failures  []CommitFailure `json:"failures,omitempty"`
}

// Pipeline accumulates pending edits until Commit.
type Pipeline struct {
	db      *sql.DB
	pending []PendingEdit
}

// NewPipeline creates a pipeline over the given database.
func NewPipeline(database *sql.DB) *Pipeline {
	return &Pipeline{db: database}
}

// Stage appends edits to the pending set.
func (p *Pipeline) Stage(edits ...PendingEdit) {
	p.pending = append(p.pending, edits...)
}

// Pending returns the staged edits in stage order.
func (p *Pipeline) Pending() []PendingEdit {
	out := make([]PendingEdit, len(p.pending))
	copy(out, p.pending)
	return out
}

// Len returns the number of staged edits.
func (p *Pipeline) Len() int {
	return len(p.pending)
}

// Commit applies all pending edits, one write transaction per target
// document. A failed edit is recorded and skipped; the rest of its
// document's edits still commit. The pending set is cleared whether or
// not anything landed, so a retry never double-applies.
func (p *Pipeline) Commit(ctx context.Context) (*Report, error) {
	pending := p.pending
	p.pending = nil

	report := &Report{}
	for _, group := range groupByDocument(pending) {
		p.commitDocument(ctx, group, report)
	}
	report.Failed = len(report.Failures)
	return report, nil
}

// documentGroup is the staged edits targeting one document.
type documentGroup struct {
	path  string
	edits []PendingEdit
}

// groupByDocument splits edits per document, preserving first-seen
// document order and stage order within each document. Document paths
// compare case-insensitively like everywhere else.
func groupByDocument(edits []PendingEdit) []documentGroup {
	var groups []documentGroup
	index := make(map[string]int)
	for _, e := range edits {
		key := strings.ToLower(e.Ref.DocumentPath)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, documentGroup{path: e.Ref.DocumentPath})
		}
		groups[i].edits = append(groups[i].edits, e)
	}
	return groups
}

// commitDocument applies one document's edits under a single lease. If
// the lease itself cannot be acquired or committed, every edit in the
// group fails together.
func (p *Pipeline) commitDocument(ctx context.Context, group documentGroup, report *Report) {
	lease, err := db.AcquireDocument(ctx, p.db, group.path)
	if err != nil {
		failAll(report, group.edits, err)
		return
	}
	defer lease.Release()

	applied := 0
	var landed []PendingEdit
	for _, e := range group.edits {
		if err := p.applyOne(ctx, lease, e); err != nil {
			report.Failures = append(report.Failures, CommitFailure{
				Ref:    e.Ref,
				Column: e.Column,
				Reason: err.Error(),
			})
			continue
		}
		applied++
		landed = append(landed, e)
	}

	if err := lease.Commit(); err != nil {
		failAll(report, landed, err)
		return
	}
	report.Committed += applied
}

// applyOne re-resolves the reference inside the transaction, mutates the
// field, and writes the entity back.
func (p *Pipeline) applyOne(ctx context.Context, lease *db.DocumentLease, e PendingEdit) error {
	ent, err := db.GetEntityTx(ctx, lease, e.Ref.Handle)
	if err != nil {
		return err
	}
	if err := applySet(ctx, lease, ent, e.Column, e.NewValue); err != nil {
		return err
	}
	return db.UpdateEntityTx(ctx, lease, ent)
}

func failAll(report *Report, edits []PendingEdit, err error) {
	for _, e := range edits {
		report.Failures = append(report.Failures, CommitFailure{
			Ref:    e.Ref,
			Column: e.Column,
			Reason: err.Error(),
		})
	}
}
