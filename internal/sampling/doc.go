// Package sampling chooses reference frames for multi-frame training.
//
// A VideoIndex groups dataset positions by video in dataset order. The
// Sampler draws reference positions around a key frame using one of two
// strategies:
//
//   - Uniform draws NumRefImgs distinct positions, without replacement, from
//     the Scope frames on either side of the key (clipped at the video ends).
//   - Sequential takes the NumRefImgs positions that follow the key. Near the
//     end of a video it borrows the positions right before the key, keeping
//     dataset order.
//
// SortSamples orders a key sample and its references for the model, either
// key first or by frame index.
package sampling
