// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	ierr "github.com/olegiv/ibiza-nights/internal/errors"
)

// Status is the moderation state of a submitted entity.
type Status string

// Moderation statuses.
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Statuses lists every moderation status.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected}

// transitions holds the legal moves. approved and rejected are terminal.
var transitions = map[Status][]Status{
	StatusPending: {StatusApproved, StatusRejected},
}

// Valid reports whether s is one of the three moderation statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseStatus parses a status value. An empty string is rejected; callers
// that treat "" as "any" check for it first.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", ierr.NewErrorf("unknown status %q", s).
			WithHint("status must be one of pending, approved, rejected").
			WithReportableDetails(map[string]string{"status": "must be one of: pending approved rejected"}).
			Mark(ierr.ErrValidation)
	}
	return st, nil
}

// Decision is a moderator's verdict on a pending entity.
type Decision string

// Moderation decisions.
const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Target returns the status a decision moves an entity to.
func (d Decision) Target() Status {
	if d == DecisionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// Filter narrows a list query. A zero Filter matches everything.
type Filter struct {
	Status Status
}

// Matches reports whether st passes the filter.
func (f Filter) Matches(st Status) bool {
	return f.Status == "" || f.Status == st
}

// Validate rejects filters naming an unknown status.
func (f Filter) Validate() error {
	if f.Status == "" {
		return nil
	}
	_, err := ParseStatus(string(f.Status))
	return err
}
