package domain

import (
	"errors"
	"fmt"
)

// ErrAssetUnavailable is returned when a single layer's asset could not be fetched or rasterized.
// Renders recover from it by skipping the layer.
var ErrAssetUnavailable = errors.New("asset unavailable")

// ErrInputTooLarge is returned when a vector asset exceeds the configured size ceiling.
var ErrInputTooLarge = errors.New("input too large")

// ErrAnimationConfig is returned for animation requests that cannot produce frames.
var ErrAnimationConfig = errors.New("invalid animation config")

// ErrNothingToAnimate is returned when an animated render has no animated traits
// and no custom frame generator.
var ErrNothingToAnimate = fmt.Errorf("%w: nothing to animate", ErrAnimationConfig)

// ErrDelegateFailure is returned by the external render delegate on any failure.
var ErrDelegateFailure = errors.New("external render failed")

// ErrDelegateTimeout is returned when the external render delegate exceeds its deadline.
var ErrDelegateTimeout = errors.New("external render timed out")

// ErrNotFound is returned when a key or path does not exist in a store.
var ErrNotFound = errors.New("not found")

// ErrStoreFailure is returned when a persistent store write fails.
var ErrStoreFailure = errors.New("store failure")

// ErrInvalidToken is returned for token ids that cannot be rendered.
var ErrInvalidToken = errors.New("invalid token id")

// ErrLockAcquire is returned when a render lock cannot be acquired.
var ErrLockAcquire = errors.New("failed to acquire render lock")
