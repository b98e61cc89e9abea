// Package reconcile applies a saved routing configuration to a live tunnel
// session by restarting it.
//
// A reconcile stops a connected session, waits until it reports
// disconnected (bounded by a settle timeout, and never shorter than a grace
// delay) and starts it again. Requests run in the background, one at a time
// per session; requests that arrive while one is running collapse into a
// single follow-up run. Failures are logged and kept as the last result,
// they are not retried.
package reconcile
