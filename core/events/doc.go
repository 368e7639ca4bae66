// Package events defines the events emitted on the event bus by the service
// layer.
//
// Available event types:
//   - SolveEvent: a dispatch schedule was computed or the solve failed
//   - EvaluationEvent: a performance evaluation finished
package events
