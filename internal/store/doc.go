// Package store provides abstractions for data persistence, including the
// TaskStore contract, typed query filters, and transaction helpers.
package store
