// Package deepview resolves the "deep values" of a record under edit: given
// the form's live state and the relation metadata of its collection, it
// produces a composite record where relational fields referenced by the
// display template are replaced with the related records' actual data,
// reconciled with the field's pending unsaved mutations. A template like
// {{author.name}} can then interpolate nested fields reactively while the
// user types, with two caches keeping redundant fetches to a minimum.
//
// The module is organized into small packages:
//
//   - [deepview/engine] — the resolution engine: change gating, mutation
//     normalization, cache reconciliation, resolved-record publication
//   - [deepview/template] — {{...}} placeholder extraction and field
//     reference tests
//   - [deepview/metadata] — relation descriptors, per-collection registry,
//     field classification
//   - [deepview/record] — dotted path lookup, per-field serialization and
//     diffing of schemaless records
//   - [deepview/fetch] — the record-read contract plus an HTTP client and a
//     SQL store implementation of it
//   - [deepview/auth] — session token store and the current-user snapshot
//   - [deepview/config] — file/env configuration
package deepview
