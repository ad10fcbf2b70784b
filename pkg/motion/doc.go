// Package motion computes per-frame layer transforms.
//
// Motions are pure functions of (spec, layer, frame, total), which keeps
// animated renders reproducible and their fingerprints stable.
package motion
