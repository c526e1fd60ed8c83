// Package mapping caches the enumerated record list of a dataset so that the
// expensive annotation parse runs once per distinct dataset configuration.
//
// A dataset describes itself with a Signature (kind, format version and the
// fields that influence the generated records). The signature hashes to a Key
// addressing a Store entry. Stores are two-phase: Lookup reports presence and
// returns the payload, Store persists it. FileStore keeps one snappy-compressed
// JSON envelope per mapping under <root>/data_mapping/<Kind>/, SQLiteStore keeps
// them in a single database. An optional Locker serializes generation across
// worker processes so concurrent cold starts enumerate the dataset only once.
//
// Correctness depends on the signature capturing every input that affects the
// records. The package cannot verify that; callers own it.
package mapping
