package domain

import (
	"encoding/json"
	"testing"
)

func TestParseProjectStatus(t *testing.T) {
	tests := []struct {
		raw     string
		want    ProjectStatus
		wantErr bool
	}{
		{"Draft", StatusDraft, false},
		{"draft", StatusDraft, false},
		{"InBidding", StatusInBidding, false},
		{"inprogress", StatusInProgress, false},
		{"Cancelled", StatusCancelled, false},
		{"BidSelected", StatusInProgress, false},
		{"bidselected", StatusInProgress, false},
		{"0", StatusDraft, false},
		{"6", StatusCancelled, false},
		{"7", 0, true},
		{"-1", 0, true},
		{"Archived", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseProjectStatus(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseProjectStatus(%q) = %v, want error", tt.raw, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseProjectStatus(%q) failed: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProjectStatus(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestProjectStatus_JSONRoundTrip(t *testing.T) {
	for status := range projectStatusNames {
		data, err := json.Marshal(status)
		if err != nil {
			t.Fatalf("marshal %v failed: %v", status, err)
		}

		var decoded ProjectStatus
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unmarshal %s failed: %v", data, err)
		}
		if decoded != status {
			t.Errorf("round trip %v -> %s -> %v", status, data, decoded)
		}
	}
}

func TestProjectStatus_UnmarshalAcceptsBothEncodings(t *testing.T) {
	tests := []struct {
		data string
		want ProjectStatus
	}{
		{`"InBidding"`, StatusInBidding},
		{`"BidSelected"`, StatusInProgress},
		{`2`, StatusInBidding},
		{`5`, StatusCompleted},
	}
	for _, tt := range tests {
		var got ProjectStatus
		if err := json.Unmarshal([]byte(tt.data), &got); err != nil {
			t.Errorf("unmarshal %s failed: %v", tt.data, err)
			continue
		}
		if got != tt.want {
			t.Errorf("unmarshal %s = %v, want %v", tt.data, got, tt.want)
		}
	}

	for _, bad := range []string{`"Archived"`, `9`, `true`, `-1`} {
		var got ProjectStatus
		if err := json.Unmarshal([]byte(bad), &got); err == nil {
			t.Errorf("unmarshal %s succeeded with %v, want error", bad, got)
		}
	}
}

func TestProjectStatus_MarshalEmitsString(t *testing.T) {
	data, err := json.Marshal(StatusInProgress)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"InProgress"` {
		t.Fatalf("marshal = %s, want \"InProgress\"", data)
	}

	if _, err := json.Marshal(ProjectStatus(42)); err == nil {
		t.Fatal("marshal of undefined status succeeded, want error")
	}
}

func TestProjectStatus_Predicates(t *testing.T) {
	if !StatusCompleted.Terminal() || !StatusCancelled.Terminal() {
		t.Error("Completed and Cancelled must be terminal")
	}
	for _, s := range []ProjectStatus{StatusDraft, StatusPublished, StatusInBidding, StatusInProgress, StatusDelivered} {
		if s.Terminal() {
			t.Errorf("%v must not be terminal", s)
		}
	}

	for _, s := range []ProjectStatus{StatusPublished, StatusInBidding} {
		if !s.AcceptsBids() {
			t.Errorf("%v must accept bids", s)
		}
	}
	for _, s := range []ProjectStatus{StatusDraft, StatusInProgress, StatusDelivered, StatusCompleted, StatusCancelled} {
		if s.AcceptsBids() {
			t.Errorf("%v must not accept bids", s)
		}
	}
}

func TestBidStatus(t *testing.T) {
	for _, s := range []BidStatus{BidPending, BidAccepted, BidRejected} {
		if !ValidBidStatus(s) {
			t.Errorf("%q must be valid", s)
		}
	}
	if ValidBidStatus("withdrawn") {
		t.Error("unknown bid status must be invalid")
	}

	if BidPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if !BidAccepted.Terminal() || !BidRejected.Terminal() {
		t.Error("accepted and rejected must be terminal")
	}
}
