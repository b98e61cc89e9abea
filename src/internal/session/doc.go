// Package session controls the tunnel session: the running tunnel engine and
// the status it reports.
//
// Manager implements Session on top of an Engine. It runs the engine in a
// goroutine, tracks the status and publishes every transition to
// subscribers. ProcessEngine is the Engine that launches the external engine
// binary and considers the session connected once its TUN link is up.
package session
