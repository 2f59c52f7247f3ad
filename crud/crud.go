// Package crud synthesizes create/read/update/destroy/paginate operations
// for a table descriptor. Storage is injected through two raw builders, one
// for queries and one for mutations, so this package holds no storage logic.
package crud

import (
	"context"
	"fmt"

	"github.com/reoring/skemabridge/fnwrap"
	"github.com/reoring/skemabridge/schema"
	"github.com/reoring/skemabridge/table"
)

// Argument keys of the generated operations.
const (
	ArgID             = "id"
	ArgPatch          = "patch"
	ArgPaginationOpts = "paginationOpts"
)

// Operations are the generated functions of one table.
//
//	Create   {<fields>}                -> id
//	Read     {id}                      -> document | nil
//	Update   {id, patch}               -> nil
//	Destroy  {id}                      -> previous document | nil
//	Paginate {paginationOpts}          -> Page
type Operations struct {
	Table    *table.Descriptor
	Create   fnwrap.Operation
	Read     fnwrap.Operation
	Update   fnwrap.Operation
	Destroy  fnwrap.Operation
	Paginate fnwrap.Operation
}

// Generate builds the operations of desc. Options (observers and so on) are
// applied to both builders.
func Generate(desc *table.Descriptor, query fnwrap.RawBuilder[QueryCtx], mutation fnwrap.RawBuilder[MutationCtx], opts ...fnwrap.Option) *Operations {
	q := fnwrap.MakeCustomBuilder(query, fnwrap.NoOp[QueryCtx](), opts...)
	m := fnwrap.MakeCustomBuilder(mutation, fnwrap.NoOp[MutationCtx](), opts...)
	name := desc.Name()
	idArgs := schema.Object(schema.Field{Name: ArgID, Node: schema.Identifier(name)})

	return &Operations{
		Table: desc,
		Create: m.Wrap(fnwrap.Spec[MutationCtx]{
			Name:    name + ":create",
			Args:    desc.CreateSchema(),
			Returns: schema.Identifier(name),
			Handler: func(ctx context.Context, c MutationCtx, args map[string]any) (any, error) {
				doc := desc.Codec().EncodeDocument(args)
				id, err := c.DB.Insert(ctx, name, doc)
				if err != nil {
					return nil, fmt.Errorf("create %s: %w", name, err)
				}
				return id, nil
			},
		}),
		Read: q.Wrap(fnwrap.Spec[QueryCtx]{
			Name: name + ":read",
			Args: idArgs,
			Handler: func(ctx context.Context, c QueryCtx, args map[string]any) (any, error) {
				doc, err := c.DB.Get(ctx, name, args[ArgID].(string))
				if err != nil {
					return nil, fmt.Errorf("read %s: %w", name, err)
				}
				if doc == nil {
					return nil, nil
				}
				return doc, nil
			},
		}),
		Update: m.Wrap(fnwrap.Spec[MutationCtx]{
			Name: name + ":update",
			Args: schema.Object(
				schema.Field{Name: ArgID, Node: schema.Identifier(name)},
				schema.Field{Name: ArgPatch, Node: desc.Partial()},
			),
			Handler: func(ctx context.Context, c MutationCtx, args map[string]any) (any, error) {
				patch := desc.PartialCodec().EncodeDocument(args[ArgPatch])
				if err := c.DB.Patch(ctx, name, args[ArgID].(string), patch); err != nil {
					return nil, fmt.Errorf("update %s: %w", name, err)
				}
				return nil, nil
			},
		}),
		Destroy: m.Wrap(fnwrap.Spec[MutationCtx]{
			Name: name + ":destroy",
			Args: idArgs,
			Handler: func(ctx context.Context, c MutationCtx, args map[string]any) (any, error) {
				id := args[ArgID].(string)
				prev, err := c.DB.Get(ctx, name, id)
				if err != nil {
					return nil, fmt.Errorf("destroy %s: %w", name, err)
				}
				if prev == nil {
					return nil, nil
				}
				if err := c.DB.Delete(ctx, name, id); err != nil {
					return nil, fmt.Errorf("destroy %s: %w", name, err)
				}
				return prev, nil
			},
		}),
		// The cursor is caller-defined and not part of the table schema.
		Paginate: q.Wrap(fnwrap.Spec[QueryCtx]{
			Name: name + ":paginate",
			Handler: func(ctx context.Context, c QueryCtx, args map[string]any) (any, error) {
				page, err := c.DB.Paginate(ctx, name, PageOptionsFrom(args[ArgPaginationOpts]))
				if err != nil {
					return nil, fmt.Errorf("paginate %s: %w", name, err)
				}
				return page, nil
			},
		}),
	}
}
