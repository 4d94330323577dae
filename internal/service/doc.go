// Package service provides application-level services for managing tasks.
//
// The write coordinator (TaskService) composes every mutating store operation
// with its downstream status notification inside a single transaction scope:
// the store write commits only if the matching publish call succeeded, and a
// publish failure rolls the write back. Read paths live in QueryService and
// carry no transactional concerns.
package service
