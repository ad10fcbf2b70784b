// Package redis provides the Redis-backed artifact store, shared cache tier
// and distributed render lock.
package redis
