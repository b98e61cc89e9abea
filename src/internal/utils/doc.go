// Package utils provides small helpers shared across keen-route.
//
//   - GetAbsolutePath resolves paths relative to the configuration directory
//   - CloseOrWarn closes files and response bodies, logging failures
package utils
