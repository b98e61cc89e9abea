package config

import (
	"errors"

	"github.com/maksimkurb/keen-route/src/internal/route"
)

// ValidateConfig validates the entire configuration and returns all validation errors
func (c *Config) ValidateConfig() error {
	var validationErrors route.ValidationErrors

	if c.General == nil {
		validationErrors = append(validationErrors, route.ValidationError{
			FieldPath: "general",
			Message:   "configuration must contain 'general' section",
		})
	} else if err := validate.Struct(c.General); err != nil {
		validationErrors = append(validationErrors, route.ConvertValidatorErrors(err, "general", "")...)
	}

	if c.Session == nil {
		validationErrors = append(validationErrors, route.ValidationError{
			FieldPath: "session",
			Message:   "configuration must contain 'session' section",
		})
	} else if err := validate.Struct(c.Session); err != nil {
		validationErrors = append(validationErrors, route.ConvertValidatorErrors(err, "session", "")...)
	}

	if c.Route != nil {
		validationErrors = append(validationErrors, validateRoute(c.Route)...)
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

// validateRoute runs the routing model checks and places their paths under "route".
func validateRoute(s *route.Snapshot) route.ValidationErrors {
	err := s.Validate()
	if err == nil {
		return nil
	}

	var routeErrors route.ValidationErrors
	if !errors.As(err, &routeErrors) {
		return route.ValidationErrors{{FieldPath: "route", Message: err.Error()}}
	}

	result := make(route.ValidationErrors, len(routeErrors))
	for i, e := range routeErrors {
		e.FieldPath = "route." + e.FieldPath
		result[i] = e
	}
	return result
}
