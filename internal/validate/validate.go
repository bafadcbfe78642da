// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package validate wraps go-playground/validator and bluemonday for request
// input.
package validate

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// v is shared; validator caches struct metadata per type.
var v = validator.New(validator.WithRequiredStructEnabled())

var policy = bluemonday.StrictPolicy()

// Struct validates s using its validate tags. The returned error lists every
// failing field.
func Struct(s any) error {
	if err := v.Struct(s); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return nil
}

// Echo adapts Struct to echo.Validator.
type Echo struct{}

func (Echo) Validate(i any) error {
	return Struct(i)
}

// Text strips all markup from s and trims surrounding whitespace. Entities
// are decoded again since the result is served as JSON, not HTML.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}
