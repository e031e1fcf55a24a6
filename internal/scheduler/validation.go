// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"github.com/robfig/cron/v3"

	ierr "github.com/olegiv/ibiza-nights/internal/errors"
)

// parser accepts standard five-field specs and descriptors such as
// "@every 5m" or "@daily".
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule checks that expr is a schedule the scheduler can run.
func ValidateSchedule(expr string) error {
	if expr == "" {
		return ierr.NewError("schedule is required").
			WithReportableDetails(map[string]string{"schedule": "is required"}).
			Mark(ierr.ErrValidation)
	}
	if _, err := parser.Parse(expr); err != nil {
		return ierr.WithError(err).
			WithMessage("invalid cron expression "+expr).
			WithHint("Use five cron fields or a descriptor such as @every 5m").
			WithReportableDetails(map[string]string{"schedule": err.Error()}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
