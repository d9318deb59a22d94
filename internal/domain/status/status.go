package status

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is a component health verdict. The underlying value is its severity.
type Status int

const (
	Operational Status = 0
	Degraded    Status = 1
	Outage      Status = 2
)

var names = map[Status]string{
	Operational: "OPERATIONAL",
	Degraded:    "DEGRADED",
	Outage:      "OUTAGE",
}

func (s Status) Severity() int { return int(s) }

func (s Status) String() string {
	if n, ok := names[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) Valid() bool {
	_, ok := names[s]
	return ok
}

func Parse(v string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "OPERATIONAL":
		return Operational, nil
	case "DEGRADED":
		return Degraded, nil
	case "OUTAGE":
		return Outage, nil
	}
	return 0, fmt.Errorf("unknown status %q", v)
}

func FromSeverity(sev int) (Status, error) {
	s := Status(sev)
	if !s.Valid() {
		return 0, fmt.Errorf("unknown status severity %d", sev)
	}
	return s, nil
}

// Worst returns the most severe status, or Operational when none are given.
func Worst(statuses ...Status) Status {
	worst := Operational
	for _, s := range statuses {
		if s.Severity() > worst.Severity() {
			worst = s
		}
	}
	return worst
}

func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("marshal status: invalid value %d", int(s))
	}
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("unmarshal status: %w", err)
	}
	v, err := Parse(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func Ptr(s Status) *Status { return &s }
