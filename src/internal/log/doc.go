// Package log provides simple leveled logging for keen-route.
//
// Messages are printed with colored level prefixes: DEBUG (verbose mode only),
// INFO, WARN and ERROR. Errors always go to stderr, everything else goes to
// stdout unless SetForceStdErr is enabled.
//
//	log.Infof("Routing configuration saved (%d rules)", n)
//	log.SetVerbose(true)
//	log.Debugf("Session status changed: %s", status)
//
// The package keeps global state guarded by a mutex, so it is safe to use
// from the reconciler goroutines and HTTP handlers at the same time.
package log
