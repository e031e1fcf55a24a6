// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package validator wraps go-playground/validator so struct validation
// failures come back as classified validation errors with per-field details.
package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	ierr "github.com/olegiv/ibiza-nights/internal/errors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Get returns the shared validator instance.
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report JSON names so details line up with request bodies.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Struct validates v and returns an error marked ierr.ErrValidation on failure.
func Struct(v any) error {
	err := Get().Struct(v)
	if err == nil {
		return nil
	}

	details := make(map[string]string)
	var validateErrs validator.ValidationErrors
	if ierr.As(err, &validateErrs) {
		for _, fe := range validateErrs {
			details[fieldPath(fe)] = describe(fe)
		}
	}
	return ierr.WithError(err).
		WithHint("Request validation failed").
		WithReportableDetails(details).
		Mark(ierr.ErrValidation)
}

// fieldPath drops the top-level struct name and embedded Base segments from
// the namespace, leaving the JSON path a client sent.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return fe.Field()
	}
	return strings.ReplaceAll(rest, "Base.", "")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "datetime":
		return "must match layout " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	case "gte":
		return "must be at least " + fe.Param()
	case "uuid4", "uuid":
		return "must be a UUID"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
