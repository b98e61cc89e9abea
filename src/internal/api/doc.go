// Package api provides the REST API for editing routing rules and controlling
// the tunnel session.
//
// It allows:
//   - Reading and changing the global routing settings
//   - Adding, editing, reordering and removing routing rules
//   - Editing the domain, IP and port lists of a rule
//   - Committing or discarding the pending edits
//   - Starting, stopping and reconciling the tunnel session
//
// # Editing
//
// Every change is applied to an in-memory draft. Nothing is persisted until
// the draft is committed with POST /api/v1/editor/commit. A commit saves the
// configuration once and schedules a reconcile: a connected session is
// stopped and started again so that the engine picks up the new rules.
//
// # Response Format
//
// All successful responses wrap data in a "data" field:
//
//	{
//	  "data": { /* response payload */ }
//	}
//
// Error responses use the following format:
//
//	{
//	  "error": {
//	    "code": "validation_failed",
//	    "message": "Human-readable error message",
//	    "details": { /* optional context */ }
//	  }
//	}
//
// # Security
//
// Requests are only accepted from loopback and private networks.
package api
