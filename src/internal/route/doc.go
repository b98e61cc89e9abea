// Package route holds the routing policy model: an ordered list of rules
// plus the global domain resolution settings, with editors for the list
// fields of a rule and the validation applied before anything is saved.
package route
