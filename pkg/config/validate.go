package config

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// placeholderPrefix marks values copied verbatim from the .env template.
const placeholderPrefix = "your_"

// MissingVarsError lists required environment variables that are unset or still placeholders.
type MissingVarsError struct {
	Vars []string
}

func (e *MissingVarsError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Vars, ", ")
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// Validate reports every required variable that is empty or prefixed with "your_".
// Variables are listed in declaration order.
func Validate(cfg *Config) error {
	err := newValidator().Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	missing := &MissingVarsError{Vars: make([]string, 0, len(validationErrors))}
	for _, fe := range validationErrors {
		missing.Vars = append(missing.Vars, fe.Field())
	}
	return missing
}

// Report writes a human readable validation summary to w and returns the process exit code.
func Report(w io.Writer, cfg *Config) int {
	err := Validate(cfg)
	if err == nil {
		fmt.Fprintln(w, "Configuration validated successfully")
		return 0
	}

	var missing *MissingVarsError
	if !errors.As(err, &missing) {
		fmt.Fprintf(w, "Configuration error: %v\n", err)
		return 1
	}

	fmt.Fprintln(w, "Configuration error: missing required environment variables")
	fmt.Fprintln(w)
	for _, name := range missing.Vars {
		fmt.Fprintf(w, "  - %s\n", name)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Set these in your .env file (values starting with %q are treated as unset).\n", placeholderPrefix)
	return 1
}
