package ops

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/draftgrid/cadsel/internal/db"
	"github.com/draftgrid/cadsel/internal/errors"
	"github.com/draftgrid/cadsel/internal/selection"
	"github.com/draftgrid/cadsel/internal/session"
)

// SelectInput contains parameters for the Select operation.
type SelectInput struct {
	Refs []RefInput // required; empty document_path means the active document
}

// BucketSave reports one bucket written by Select.
type BucketSave struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

// SelectOutput contains the result of the Select operation.
type SelectOutput struct {
	Buckets []BucketSave `json:"buckets"`
	Total   int          `json:"total"`
}

// Select stores refs as the durable selection, one bucket per document
// base name. Each touched bucket is replaced wholesale, which also
// compacts away rows from dead sessions.
func Select(ctx context.Context, database *sql.DB, store *selection.Store, input SelectInput) (*SelectOutput, error) {
	if len(input.Refs) == 0 {
		return nil, errors.NewInvalidRequest("at least one reference is required")
	}

	activePath := ""
	if active, err := db.ActiveDocument(ctx, database); err == nil {
		activePath = active.Path
	}

	refs, err := toRefs(input.Refs, activePath)
	if err != nil {
		return nil, err
	}

	token := session.Token()
	byBucket := make(map[string][]selection.Entry)
	for _, r := range refs {
		bucket := db.BaseName(r.DocumentPath)
		byBucket[bucket] = append(byBucket[bucket], selection.Entry{SessionToken: token, Ref: r})
	}

	buckets := make([]string, 0, len(byBucket))
	for b := range byBucket {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return strings.ToLower(buckets[i]) < strings.ToLower(buckets[j]) })

	out := &SelectOutput{}
	for _, bucket := range buckets {
		entries := byBucket[bucket]
		if err := store.Save(bucket, entries); err != nil {
			return nil, err
		}
		out.Buckets = append(out.Buckets, BucketSave{Bucket: bucket, Count: len(entries)})
		out.Total += len(entries)
	}
	return out, nil
}
