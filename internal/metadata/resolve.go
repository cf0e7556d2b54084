package metadata

import (
	"context"
	"fmt"
)

// Resolve returns the element h addresses in md. If the element, or any
// element on its path, does not exist in md, Resolve returns the zero T and a
// nil error. An error is returned only when the path cannot describe an
// element at all; it wraps ErrMalformedHandle.
//
// Partitions along the path are loaded through ctx.
func (h Handle[T]) Resolve(ctx context.Context, md *Metadata) (T, error) {
	var zero T
	segs, err := decodePath(h.path)
	if err != nil {
		return zero, err
	}
	r := &resolver{ctx: ctx, md: md, segs: segs}
	e, err := r.resolve(len(segs) - 1)
	if err != nil || e == nil {
		return zero, err
	}
	t, ok := e.(T)
	if !ok {
		return zero, fmt.Errorf("%w: resolved %s is not a %T", ErrMalformedHandle, e.Kind(), zero)
	}
	return t, nil
}

type resolver struct {
	ctx  context.Context
	md   *Metadata
	segs []Segment
}

// resolve dispatches on the kind of the segment at idx. A typed nil result
// is turned into a nil Element here so callers can compare against nil.
func (r *resolver) resolve(idx int) (Element, error) {
	switch k := r.segs[idx].Kind; k {
	case KindCatalog:
		e, err := r.catalog(idx)
		return nonNil(e, err)
	case KindSchema:
		e, err := r.schema(idx)
		return nonNil(e, err)
	case KindTable:
		e, err := r.table(idx)
		return nonNil(e, err)
	case KindView:
		e, err := r.view(idx)
		return nonNil(e, err)
	case KindProcedure:
		e, err := r.procedure(idx)
		return nonNil(e, err)
	case KindFunction:
		e, err := r.function(idx)
		return nonNil(e, err)
	case KindColumn:
		e, err := r.column(idx)
		return nonNil(e, err)
	case KindPrimaryKey:
		e, err := r.primaryKey(idx)
		return nonNil(e, err)
	case KindParameter:
		e, err := r.parameter(idx)
		return nonNil(e, err)
	case KindForeignKey:
		e, err := r.foreignKey(idx)
		return nonNil(e, err)
	case KindIndex:
		e, err := r.index(idx)
		return nonNil(e, err)
	case KindForeignKeyColumn:
		e, err := r.foreignKeyColumn(idx)
		return nonNil(e, err)
	case KindIndexColumn:
		e, err := r.indexColumn(idx)
		return nonNil(e, err)
	case KindReturnValue:
		e, err := r.returnValue(idx)
		return nonNil(e, err)
	default:
		return nil, fmt.Errorf("%w: unhandled kind %s", ErrMalformedHandle, k)
	}
}

func nonNil[E interface {
	comparable
	Element
}](e E, err error) (Element, error) {
	var zero E
	if err != nil || e == zero {
		return nil, err
	}
	return e, nil
}

// parentIdx returns the index of the segment above idx, failing when the path
// has no more ancestors.
func (r *resolver) parentIdx(idx int) (int, error) {
	if idx <= 0 {
		return 0, fmt.Errorf("%w: %s has no parent segment", ErrMalformedHandle, r.segs[idx].Kind)
	}
	return idx - 1, nil
}

func (r *resolver) catalog(idx int) (*Catalog, error) {
	return r.md.Catalog(r.segs[idx].Name), nil
}

func (r *resolver) schema(idx int) (*Schema, error) {
	p, err := r.parentIdx(idx)
	if err != nil {
		return nil, err
	}
	catalog, err := r.catalog(p)
	if err != nil || catalog == nil {
		return nil, err
	}
	if r.segs[idx].NoName {
		return catalog.SyntheticSchema(), nil
	}
	return catalog.Schema(r.segs[idx].Name), nil
}

// table resolves a table below a schema, or a partition below its
// partitioned table.
func (r *resolver) table(idx int) (*Table, error) {
	p, err := r.parentIdx(idx)
	if err != nil {
		return nil, err
	}
	name := r.segs[idx].Name
	switch k := r.segs[p].Kind; k {
	case KindSchema:
		schema, err := r.schema(p)
		if err != nil || schema == nil {
			return nil, err
		}
		return schema.Table(name), nil
	case KindTable:
		parent, err := r.table(p)
		if err != nil || parent == nil {
			return nil, err
		}
		return parent.Partition(r.ctx, name), nil
	default:
		return nil, fmt.Errorf("%w: table below %s", ErrMalformedHandle, k)
	}
}

func (r *resolver) view(idx int) (*View, error) {
	p, err := r.parentIdx(idx)
	if err != nil {
		return nil, err
	}
	schema, err := r.schema(p)
	if err != nil || schema == nil {
		return nil, err
	}
	return schema.View(r.segs[idx].Name), nil
}

// procedure only matches a procedure segment, so that trying a function
// path as a procedure (or the reverse) finds nothing.
func (r *resolver) procedure(idx int) (*Procedure, error) {
	if r.segs[idx].Kind != KindProcedure {
		return nil, nil
	}
	p, err := r.parentIdx(idx)
	if err != nil {
		return nil, err
	}
	schema, err := r.schema(p)
	if err != nil || schema == nil {
		return nil, err
	}
	return schema.Procedure(r.segs[idx].Name), nil
}

func (r *resolver) function(idx int) (*Function, error) {
	if r.segs[idx].Kind != KindFunction {
		return nil, nil
	}
	p, err := r.parentIdx(idx)
	if err != nil {
		return nil, err
	}
	schema, err := r.schema(p)
	if err != nil || schema == nil {
		return nil, err
	}
	return schema.Function(r.segs[idx].Name), nil
}

// returnValue tries the parent as a function first, then as a procedure.
func (r *resolver) returnValue(idx int) (*Value, error) {
	p, err := r.parentIdx(idx)
	if err != nil {
		return nil, err
	}
	fn, err := r.function(p)
	if err != nil {
		return nil, err
	}
	if fn != nil {
		return fn.ReturnValue(), nil
	}
	proc, err := r.procedure(p)
	if err != nil || proc == nil {
		return nil, err
	}
	return proc.ReturnValue(), nil
}

// parameter tries the parent as a procedure first, then as a function.
func (r *resolver) parameter(idx int) (*Parameter, error) {
	p, err := r.parentIdx(idx)
	if err != nil {
		return nil, err
	}
	name := r.segs[idx].Name
	proc, err := r.procedure(p)
	if err != nil {
		return nil, err
	}
	if proc != nil {
		return proc.Parameter(name), nil
	}
	fn, err := r.function(p)
	if err != nil || fn == nil {
		return nil, err
	}
	return fn.Parameter(name), nil
}

func (r *resolver) primaryKey(idx int) (*PrimaryKey, error) {
	p, err := r.parentIdx(idx)
	if err != nil {
		return nil, err
	}
	table, err := r.table(p)
	if err != nil || table == nil {
		return nil, err
	}
	return table.PrimaryKey(), nil
}

// column resolves a column of a table, a view or a procedure result set.
func (r *resolver) column(idx int) (*Column, error) {
	p, err := r.parentIdx(idx)
	if err != nil {
		return nil, err
	}
	name := r.segs[idx].Name
	switch k := r.segs[p].Kind; k {
	case KindTable:
		table, err := r.table(p)
		if err != nil || table == nil {
			return nil, err
		}
		return table.Column(name), nil
	case KindProcedure:
		proc, err := r.procedure(p)
		if err != nil || proc == nil {
			return nil, err
		}
		return proc.Column(name), nil
	case KindView:
		view, err := r.view(p)
		if err != nil || view == nil {
			return nil, err
		}
		return view.Column(name), nil
	default:
		return nil, fmt.Errorf("%w: column below %s", ErrMalformedHandle, k)
	}
}

func (r *resolver) index(idx int) (*Index, error) {
	p, err := r.parentIdx(idx)
	if err != nil {
		return nil, err
	}
	table, err := r.table(p)
	if err != nil || table == nil {
		return nil, err
	}
	return table.Index(r.segs[idx].Name), nil
}

func (r *resolver) foreignKey(idx int) (*ForeignKey, error) {
	p, err := r.parentIdx(idx)
	if err != nil {
		return nil, err
	}
	table, err := r.table(p)
	if err != nil || table == nil {
		return nil, err
	}
	return table.ForeignKeyByInternalName(r.segs[idx].Name), nil
}

func (r *resolver) foreignKeyColumn(idx int) (*ForeignKeyColumn, error) {
	p, err := r.parentIdx(idx)
	if err != nil {
		return nil, err
	}
	key, err := r.foreignKey(p)
	if err != nil || key == nil {
		return nil, err
	}
	return key.Column(r.segs[idx].Name), nil
}

func (r *resolver) indexColumn(idx int) (*IndexColumn, error) {
	p, err := r.parentIdx(idx)
	if err != nil {
		return nil, err
	}
	index, err := r.index(p)
	if err != nil || index == nil {
		return nil, err
	}
	return index.Column(r.segs[idx].Name), nil
}
