// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"

	ierr "github.com/olegiv/ibiza-nights/internal/errors"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.IsTerminal() {
		t.Error("pending should not be terminal")
	}
	if !StatusApproved.IsTerminal() || !StatusRejected.IsTerminal() {
		t.Error("approved and rejected should be terminal")
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		if err != nil || got != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, got, err)
		}
	}

	_, err := ParseStatus("archived")
	if !ierr.IsValidation(err) {
		t.Errorf("ParseStatus(archived) error = %v, want validation error", err)
	}
	if ierr.Details(err)["status"] == "" {
		t.Error("expected status detail")
	}
}

func TestFilter(t *testing.T) {
	if !(Filter{}).Matches(StatusRejected) {
		t.Error("empty filter should match everything")
	}
	f := Filter{Status: StatusApproved}
	if !f.Matches(StatusApproved) || f.Matches(StatusPending) {
		t.Error("status filter mismatch")
	}
	if err := (Filter{Status: "bogus"}).Validate(); !ierr.IsValidation(err) {
		t.Errorf("Validate() = %v, want validation error", err)
	}
}

func TestDecisionTarget(t *testing.T) {
	if DecisionApprove.Target() != StatusApproved {
		t.Error("approve should target approved")
	}
	if DecisionReject.Target() != StatusRejected {
		t.Error("reject should target rejected")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"event", KindEvent},
		{"events", KindEvent},
		{"dj", KindDJ},
		{"djs", KindDJ},
		{"clubs", KindClub},
		{"promoter", KindPromoter},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseKind("venues"); !ierr.IsValidation(err) {
		t.Errorf("ParseKind(venues) error = %v, want validation error", err)
	}
}

func TestKindOrder(t *testing.T) {
	for i, k := range Kinds {
		if k.Order() != i {
			t.Errorf("%s.Order() = %d, want %d", k, k.Order(), i)
		}
	}
	if Kind("x").Order() != len(Kinds) {
		t.Error("unknown kinds sort last")
	}
}

func TestEventRefs(t *testing.T) {
	e := Event{ClubID: "c1", PromoterID: "p1", DJIDs: []string{"d1", "d2"}}
	refs := e.Refs()
	want := []Ref{
		{Kind: KindClub, ID: "c1"},
		{Kind: KindPromoter, ID: "p1"},
		{Kind: KindDJ, ID: "d1"},
		{Kind: KindDJ, ID: "d2"},
	}
	if len(refs) != len(want) {
		t.Fatalf("Refs() = %v, want %v", refs, want)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("Refs()[%d] = %v, want %v", i, refs[i], want[i])
		}
	}

	if len((Event{}).Refs()) != 0 {
		t.Error("event without references should have no refs")
	}
}

func TestActorPermissions(t *testing.T) {
	anon := Actor{}
	user := Actor{UserID: "u1", Role: RoleUser}
	mod := Actor{UserID: "m1", Role: RoleModerator}
	admin := Actor{UserID: "a1", Role: RoleAdmin}

	if !anon.IsAnonymous() || user.IsAnonymous() {
		t.Error("IsAnonymous mismatch")
	}
	if user.CanModerate() || !mod.CanModerate() || !admin.CanModerate() {
		t.Error("CanModerate mismatch")
	}
	if mod.IsAdmin() || !admin.IsAdmin() {
		t.Error("IsAdmin mismatch")
	}

	b := Base{SubmittedBy: "u1"}
	if !user.Owns(b) || mod.Owns(b) || anon.Owns(Base{}) {
		t.Error("Owns mismatch")
	}
	if !SystemActor.IsAdmin() || SystemActor.UserID != SystemImportUser {
		t.Error("system actor should be an admin acting as system-import")
	}
}

func TestTokens(t *testing.T) {
	a, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	b, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if a == b {
		t.Error("tokens should be unique")
	}
	if HashToken(a) != HashToken(a) || HashToken(a) == HashToken(b) {
		t.Error("HashToken should be deterministic and distinct")
	}
	if len(HashToken(a)) != 64 {
		t.Errorf("hash length = %d, want 64", len(HashToken(a)))
	}
}

func TestNewPendingItem(t *testing.T) {
	dj := DJ{Base: Base{ID: "d1", Name: "Peggy Gou", Slug: "peggy-gou", SubmittedBy: "u1"}}
	item := NewPendingItem(dj)
	if item.Kind != KindDJ || item.ID != "d1" || item.Name != "Peggy Gou" || item.SubmittedBy != "u1" {
		t.Errorf("unexpected item %+v", item)
	}
}
