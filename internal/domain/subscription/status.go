package subscription

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Status is the lifecycle status of a subscription.
// Wire/storage compatibility uses Code(); everything else uses the named constants.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusPending
	StatusActive
	StatusExpired
	StatusCancelled
)

// Legacy numeric codes
const (
	codeActive    = 1
	codeExpired   = 2
	codeCancelled = 3
	codePending   = 4
)

// Code returns the numeric code used in storage and legacy payloads
func (s Status) Code() int {
	switch s {
	case StatusActive:
		return codeActive
	case StatusExpired:
		return codeExpired
	case StatusCancelled:
		return codeCancelled
	case StatusPending:
		return codePending
	}
	return 0
}

// StatusFromCode maps a numeric code onto a Status
func StatusFromCode(code int) (Status, error) {
	switch code {
	case codeActive:
		return StatusActive, nil
	case codeExpired:
		return StatusExpired, nil
	case codeCancelled:
		return StatusCancelled, nil
	case codePending:
		return StatusPending, nil
	}
	return StatusUnknown, fmt.Errorf("unknown subscription status code %d", code)
}

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusExpired:
		return "expired"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// ParseStatus accepts a status name or its numeric code
func ParseStatus(s string) (Status, error) {
	if code, err := strconv.Atoi(s); err == nil {
		return StatusFromCode(code)
	}
	for _, st := range []Status{StatusPending, StatusActive, StatusExpired, StatusCancelled} {
		if st.String() == s {
			return st, nil
		}
	}
	return StatusUnknown, fmt.Errorf("unknown subscription status %q", s)
}

// IsTerminal reports whether no further lifecycle transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusCancelled
}

// MarshalJSON encodes the status name
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts a name ("active") or a legacy code (1)
func (s *Status) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		st, err := StatusFromCode(code)
		if err != nil {
			return err
		}
		*s = st
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	st, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
