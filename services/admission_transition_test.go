package services

import (
	"errors"
	"testing"

	"github.com/sahilchouksey/eduadmit/model"
)

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from model.AdmissionStatus
		to   model.AdmissionStatus
		want bool
	}{
		{model.AdmissionStatusPending, model.AdmissionStatusShortlisted, true},
		{model.AdmissionStatusPending, model.AdmissionStatusAccepted, true},
		{model.AdmissionStatusPending, model.AdmissionStatusRejected, true},
		{model.AdmissionStatusShortlisted, model.AdmissionStatusAccepted, true},
		{model.AdmissionStatusShortlisted, model.AdmissionStatusRejected, true},
		{model.AdmissionStatusShortlisted, model.AdmissionStatusShortlisted, false},
		{model.AdmissionStatusAccepted, model.AdmissionStatusRejected, false},
		{model.AdmissionStatusAccepted, model.AdmissionStatusShortlisted, false},
		{model.AdmissionStatusRejected, model.AdmissionStatusAccepted, false},
		{model.AdmissionStatusRejected, model.AdmissionStatusShortlisted, false},
		{model.AdmissionStatusRejected, model.AdmissionStatusPending, false},
	}

	for _, tc := range cases {
		if got := validTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("validTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTargetStatus(t *testing.T) {
	cases := []struct {
		action TransitionAction
		want   model.AdmissionStatus
	}{
		{ActionShortlist, model.AdmissionStatusShortlisted},
		{ActionAccept, model.AdmissionStatusAccepted},
		{ActionReject, model.AdmissionStatusRejected},
	}

	for _, tc := range cases {
		got, err := targetStatus(tc.action)
		if err != nil {
			t.Fatalf("targetStatus(%s) returned error: %v", tc.action, err)
		}
		if got != tc.want {
			t.Errorf("targetStatus(%s) = %s, want %s", tc.action, got, tc.want)
		}
	}

	if _, err := targetStatus("promote"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("targetStatus with unknown action: got %v, want ErrInvalidTransition", err)
	}
}
