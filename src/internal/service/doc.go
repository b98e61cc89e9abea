// Package service sits between the command layer (CLI and API) and the
// route, config and session packages.
//
// # Editing
//
// RouteEditor holds one draft of the route configuration. Edits are
// serialized and applied to the draft only; End persists the draft once
// through the route.Store and asks the reconciler to restart the session.
// Discard drops the draft without saving.
//
//	editor := service.NewRouteEditor(store, reconciler)
//	err := editor.Edit(func(cfg *route.Config) error {
//	    rule := cfg.AddRule()
//	    rule.SetOutboundTag("proxy")
//	    return nil
//	})
//	...
//	err = editor.End()
//
// # Validation
//
// ValidationService runs schema validation of the application config, checks
// that the engine command line renders, and reports non-fatal warnings such
// as rules without any match criteria.
package service
