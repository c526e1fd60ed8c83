// Package augment prepares frames for the model: it loads image bytes through
// a backend, decodes PNG or JPEG, applies a random scale and horizontal flip,
// and converts the result to a CHW float32 tensor with boxes mapped to the
// new geometry.
//
// The geometric parameters chosen for a key frame are returned so the
// reference frames of the same clip can be transformed identically.
package augment
