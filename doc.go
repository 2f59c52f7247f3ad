// Package skemabridge provides:
//
// - A tagged-variant schema tree (package schema) with analysis of optional/nullable/default modifiers
// - Translation of that tree into a destination validator vocabulary (package validator)
// - A value codec converting domain values to wire-safe values and back (package codec)
// - Immutable table descriptors and generated CRUD operations (packages table, crud)
// - A composable wrapper around handler functions: augment, validate args, handle,
//   validate return, encode (package fnwrap)
//
// The root package keeps only the shared error model: Issues (JSON Pointer, code,
// message) and the flattened field report derived from it.
//
// Typical usage:
//
//	profiles := table.MustDefine("profiles", schema.Fields{
//	    "name":   schema.String(),
//	    "age":    schema.Number().Optional(),
//	    "joined": schema.Date(),
//	})
//	db := memory.New()
//	db.RegisterTable(profiles)
//	ops := crud.Generate(profiles, memory.Query(db), memory.Mutation(db))
//	id, err := ops.Create(ctx, map[string]any{"name": "Ada", "joined": time.Now()})
package skemabridge
