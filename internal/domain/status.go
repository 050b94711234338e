package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ProjectStatus is the lifecycle state of a project. The wire format is
// inconsistent in the surrounding system: some callers send the string
// enumeration, others the small-integer encoding. Both are accepted on input;
// output is always the canonical string.
type ProjectStatus int

const (
	StatusDraft ProjectStatus = iota
	StatusPublished
	StatusInBidding
	StatusInProgress
	StatusDelivered
	StatusCompleted
	StatusCancelled
)

var projectStatusNames = map[ProjectStatus]string{
	StatusDraft:      "Draft",
	StatusPublished:  "Published",
	StatusInBidding:  "InBidding",
	StatusInProgress: "InProgress",
	StatusDelivered:  "Delivered",
	StatusCompleted:  "Completed",
	StatusCancelled:  "Cancelled",
}

func (s ProjectStatus) String() string {
	if name, ok := projectStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ProjectStatus(%d)", int(s))
}

// Valid reports whether s is one of the defined statuses.
func (s ProjectStatus) Valid() bool {
	_, ok := projectStatusNames[s]
	return ok
}

// Terminal reports whether no further transitions are possible.
func (s ProjectStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// AcceptsBids reports whether vendors may submit or edit bids.
func (s ProjectStatus) AcceptsBids() bool {
	return s == StatusPublished || s == StatusInBidding
}

// ParseProjectStatus accepts the canonical string names, the legacy
// "BidSelected" alias (normalized to InProgress, since winner selection and
// execution start are one atomic step), and the integer encoding 0..6.
func ParseProjectStatus(raw string) (ProjectStatus, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		s := ProjectStatus(n)
		if !s.Valid() {
			return 0, fmt.Errorf("unknown project status %q", raw)
		}
		return s, nil
	}
	if strings.EqualFold(raw, "BidSelected") {
		return StatusInProgress, nil
	}
	for s, name := range projectStatusNames {
		if strings.EqualFold(raw, name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown project status %q", raw)
}

// MarshalJSON emits the canonical string name.
func (s ProjectStatus) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid project status %d", int(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts both a JSON string (canonical name or alias) and a
// JSON number (the integer encoding).
func (s *ProjectStatus) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		parsed, err := ParseProjectStatus(asString)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	var asInt int
	if err := json.Unmarshal(data, &asInt); err != nil {
		return fmt.Errorf("project status must be a string or integer: %s", data)
	}
	parsed := ProjectStatus(asInt)
	if !parsed.Valid() {
		return fmt.Errorf("unknown project status %d", asInt)
	}
	*s = parsed
	return nil
}

// BidStatus is the lifecycle state of a single bid.
type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

func ValidBidStatus(s BidStatus) bool {
	switch s {
	case BidPending, BidAccepted, BidRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether the bid can no longer change.
func (s BidStatus) Terminal() bool {
	return s == BidAccepted || s == BidRejected
}
