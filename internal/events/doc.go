// Package events defines the task status notification event and the
// Publisher contract for handing it to a durable at-least-once queue.
//
// The coordinator in the service layer calls Publish inside the same
// transaction scope as the store write, so a publish failure rolls the
// write back and the store never diverges from what was announced
// downstream.
package events
