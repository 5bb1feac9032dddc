package sqldb

import (
	"context"

	"github.com/leapstack-labs/leapdb/pkg/core"
)

// Hooks are optional callbacks run around table writes. A nil slot is a
// no-op. Before hooks may return a replacement record; returning an error
// aborts the write and the error is returned to the caller unchanged.
//
// Hooks see native values: encoding and encryption happen after the before
// hook, and after hooks receive the record as written by the caller, not
// the stored form. Raw operations never run hooks.
type Hooks struct {
	BeforeInsert func(ctx context.Context, rec core.Record) (core.Record, error)
	AfterInsert  func(ctx context.Context, rec core.Record) error

	// BeforeUpdate receives the new record and the row as it was before
	// the update.
	BeforeUpdate func(ctx context.Context, next, prev core.Record) (core.Record, error)
	AfterUpdate  func(ctx context.Context, next, prev core.Record) error

	BeforeDelete func(ctx context.Context, rec core.Record) error
	AfterDelete  func(ctx context.Context, rec core.Record) error
}

func (h *Hooks) beforeInsert(ctx context.Context, rec core.Record) (core.Record, error) {
	if h.BeforeInsert == nil {
		return rec, nil
	}
	out, err := h.BeforeInsert(ctx, rec)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return rec, nil
	}
	return out, nil
}

func (h *Hooks) afterInsert(ctx context.Context, rec core.Record) error {
	if h.AfterInsert == nil {
		return nil
	}
	return h.AfterInsert(ctx, rec)
}

func (h *Hooks) beforeUpdate(ctx context.Context, next, prev core.Record) (core.Record, error) {
	if h.BeforeUpdate == nil {
		return next, nil
	}
	out, err := h.BeforeUpdate(ctx, next, prev)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return next, nil
	}
	return out, nil
}

func (h *Hooks) afterUpdate(ctx context.Context, next, prev core.Record) error {
	if h.AfterUpdate == nil {
		return nil
	}
	return h.AfterUpdate(ctx, next, prev)
}

func (h *Hooks) beforeDelete(ctx context.Context, rec core.Record) error {
	if h.BeforeDelete == nil {
		return nil
	}
	return h.BeforeDelete(ctx, rec)
}

func (h *Hooks) afterDelete(ctx context.Context, rec core.Record) error {
	if h.AfterDelete == nil {
		return nil
	}
	return h.AfterDelete(ctx, rec)
}
