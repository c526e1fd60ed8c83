// Package fetch turns dataset indices into prepared clips.
//
// A Dataset reads the record at an index, runs the transform, and in training
// mode attaches reference frames drawn by a sampling.Sampler, transformed with
// the key frame's geometric parameters. Records whose transform fails are
// dropped from the worker's fallback candidate set and the fetch retries with
// a uniformly drawn replacement index, so a handful of unreadable files never
// interrupts an epoch.
//
// A Dataset belongs to one loading worker. It owns its candidate set and
// random source and must not be shared between goroutines.
package fetch
