// Package inflight provides per-key mutual exclusion for cache fills.
//
// Within a process, keys are guarded by reference-counted mutexes. With a
// ports.DistributedLocker configured, the same key is also locked across
// replicas for the duration of the work.
package inflight
