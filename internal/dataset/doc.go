// Package dataset enumerates Scalabel-format annotations into frame records.
//
// Scalabel is the JSON label format used by BDD100K and related video
// datasets: one object per frame carrying the image URL, the video it belongs
// to, its index within that video and a list of labelled instances. The
// Scalabel type describes one annotation file and can hand a mapping.Loader
// both the signature of its configuration and the generator for its records.
package dataset
