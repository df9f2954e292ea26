// Package events lets services announce task changes without knowing who
// listens. Events are dispatched in process; nothing is queued or persisted.
package events
