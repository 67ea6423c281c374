package models

import "testing"

func TestParseRequestStatus(t *testing.T) {
	valid := []string{
		"pending", "accepted", "rejected", "cancelled",
		"in_progress", "client_completed", "completed",
	}
	for _, s := range valid {
		got, err := ParseRequestStatus(s)
		if err != nil {
			t.Errorf("ParseRequestStatus(%q) returned error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseRequestStatus(%q) = %q", s, got)
		}
	}

	invalid := []string{"", "done", "Pending", "in-progress", "canceled"}
	for _, s := range invalid {
		if _, err := ParseRequestStatus(s); err == nil {
			t.Errorf("ParseRequestStatus(%q) expected error", s)
		}
	}
}

func TestCanTransitionAllowed(t *testing.T) {
	cases := []struct {
		from  RequestStatus
		actor UserType
		to    RequestStatus
	}{
		{RequestPending, UserTypeProvider, RequestAccepted},
		{RequestPending, UserTypeProvider, RequestRejected},
		{RequestPending, UserTypeProvider, RequestCancelled},
		{RequestAccepted, UserTypeProvider, RequestInProgress},
		{RequestInProgress, UserTypeClient, RequestClientCompleted},
		{RequestClientCompleted, UserTypeProvider, RequestCompleted},
	}
	for _, tc := range cases {
		if !CanTransition(tc.from, tc.actor, tc.to) {
			t.Errorf("CanTransition(%s, %s, %s) = false, want true", tc.from, tc.actor, tc.to)
		}
	}
}

func TestCanTransitionDenied(t *testing.T) {
	cases := []struct {
		name  string
		from  RequestStatus
		actor UserType
		to    RequestStatus
	}{
		{"client cannot accept", RequestPending, UserTypeClient, RequestAccepted},
		{"client cannot reject", RequestPending, UserTypeClient, RequestRejected},
		{"provider cannot mark client_completed", RequestInProgress, UserTypeProvider, RequestClientCompleted},
		{"client cannot finalize completion", RequestClientCompleted, UserTypeClient, RequestCompleted},
		{"no skipping to in_progress", RequestPending, UserTypeProvider, RequestInProgress},
		{"no skipping to completed", RequestInProgress, UserTypeClient, RequestCompleted},
		{"no going backwards", RequestAccepted, UserTypeProvider, RequestPending},
		{"rejected is terminal", RequestRejected, UserTypeProvider, RequestAccepted},
		{"cancelled is terminal", RequestCancelled, UserTypeProvider, RequestPending},
		{"completed is terminal", RequestCompleted, UserTypeClient, RequestInProgress},
		{"no self transition", RequestPending, UserTypeProvider, RequestPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if CanTransition(tc.from, tc.actor, tc.to) {
				t.Errorf("CanTransition(%s, %s, %s) = true, want false", tc.from, tc.actor, tc.to)
			}
		})
	}
}

func TestIsTerminalStatus(t *testing.T) {
	terminal := []RequestStatus{RequestRejected, RequestCancelled, RequestCompleted}
	for _, s := range terminal {
		if !IsTerminalStatus(s) {
			t.Errorf("IsTerminalStatus(%s) = false, want true", s)
		}
	}

	active := []RequestStatus{RequestPending, RequestAccepted, RequestInProgress, RequestClientCompleted}
	for _, s := range active {
		if IsTerminalStatus(s) {
			t.Errorf("IsTerminalStatus(%s) = true, want false", s)
		}
	}
}
