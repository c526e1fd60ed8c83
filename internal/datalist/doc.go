// Package datalist holds dataset records in a compact, read-only container.
//
// In the default mode every record is encoded on its own and concatenated into
// a single byte buffer with a table of cumulative end offsets, so a large
// index costs one allocation instead of one object per record. Records are
// decoded on access, which means callers always receive a fresh value and can
// never mutate the stored entry. The non-serializing mode keeps the original
// slice and optionally deep-copies on every read.
package datalist
