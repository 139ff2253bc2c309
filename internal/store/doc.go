// Package store provides the durable key-value backends Iris persists its
// credential, quota state and response cache into.
package store
