// Copyright (c) 2026 BVK Chaitanya

// Package journal records the engine's fills and bracket placements in the
// database for later inspection. The journal is observability only: the
// engine never reads it back to make decisions, so a lost or deleted
// journal costs nothing but history.
package journal

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/bvk/balancebot/gobs"
	"github.com/bvk/balancebot/kvutil"
	"github.com/bvkgo/kv"
)

const (
	FillsKeyspace    = "/fills"
	BracketsKeyspace = "/brackets"
)

// keyTimeFormat is fixed-width so that lexical key order matches time
// order.
const keyTimeFormat = "20060102-150405.000000000"

type Journal struct {
	db kv.Database
}

func New(db kv.Database) *Journal {
	return &Journal{db: db}
}

func (j *Journal) RecordFill(ctx context.Context, v *gobs.FillRecord) error {
	key := path.Join(FillsKeyspace, v.Time.UTC().Format(keyTimeFormat))
	return kvutil.SetDB(ctx, j.db, key, v)
}

func (j *Journal) RecordBracket(ctx context.Context, v *gobs.BracketRecord) error {
	key := path.Join(BracketsKeyspace, v.Time.UTC().Format(keyTimeFormat))
	return kvutil.SetDB(ctx, j.db, key, v)
}

// ScanFills visits all recorded fills in time order.
func (j *Journal) ScanFills(ctx context.Context, fn func(*gobs.FillRecord) error) error {
	begin, end := kvutil.PathRange(FillsKeyspace)
	return kvutil.AscendDB(ctx, j.db, begin, end, func(ctx context.Context, r kv.Reader, k string, v *gobs.FillRecord) error {
		return fn(v)
	})
}

// ScanBrackets visits all recorded bracket placements in time order.
func (j *Journal) ScanBrackets(ctx context.Context, fn func(*gobs.BracketRecord) error) error {
	begin, end := kvutil.PathRange(BracketsKeyspace)
	return kvutil.AscendDB(ctx, j.db, begin, end, func(ctx context.Context, r kv.Reader, k string, v *gobs.BracketRecord) error {
		return fn(v)
	})
}

var errStop = errors.New("stop iteration")

// LastBracket returns the most recent bracket placement or nil when the
// journal has none.
func (j *Journal) LastBracket(ctx context.Context) (*gobs.BracketRecord, error) {
	var last *gobs.BracketRecord
	begin, end := kvutil.PathRange(BracketsKeyspace)
	err := kv.WithReader(ctx, j.db, func(ctx context.Context, r kv.Reader) error {
		return kvutil.Descend(ctx, r, begin, end, func(ctx context.Context, r kv.Reader, k string, v *gobs.BracketRecord) error {
			last = v
			return errStop
		})
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	return last, nil
}

// FillsSince counts fills recorded at or after the given time.
func (j *Journal) FillsSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := j.ScanFills(ctx, func(v *gobs.FillRecord) error {
		if !v.Time.Before(since) {
			n++
		}
		return nil
	})
	return n, err
}
