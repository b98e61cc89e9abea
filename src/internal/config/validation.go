package config

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/valyala/fasttemplate"

	"github.com/maksimkurb/keen-route/src/internal/session"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("command_template", validateCommandTemplate); err != nil {
		panic(err)
	}
	if err := validate.RegisterValidation("iface_name", validateIfaceName); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateCommandTemplate(fl validator.FieldLevel) bool {
	return CheckCommandTemplate(fl.Field().String()) == nil
}

// CheckCommandTemplate verifies that an engine command line parses and uses
// only known variables.
func CheckCommandTemplate(command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("engine command is empty")
	}

	tmpl, err := fasttemplate.NewTemplate(command, "{{", "}}")
	if err != nil {
		return err
	}

	_, err = tmpl.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		switch strings.TrimSpace(tag) {
		case session.TmplConfig, session.TmplTun:
			return 0, nil
		default:
			return 0, fmt.Errorf("unknown variable {{%s}}", tag)
		}
	})
	return err
}

func validateIfaceName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if len(name) == 0 || len(name) > 15 {
		return false
	}
	return !strings.ContainsAny(name, " \t/:")
}
