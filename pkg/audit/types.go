package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Action identifies what an audit event records
type Action string

const (
	ActionUnknown Action = ""

	// Flow events
	ActionRunFlow Action = "RUN_FLOW"

	// Hunt lifecycle events
	ActionHuntCreated  Action = "HUNT_CREATED"
	ActionHuntModified Action = "HUNT_MODIFIED"
	ActionHuntPaused   Action = "HUNT_PAUSED"
	ActionHuntStarted  Action = "HUNT_STARTED"
	ActionHuntStopped  Action = "HUNT_STOPPED"

	// Approval events
	ActionHuntApprovalRequest             Action = "HUNT_APPROVAL_REQUEST"
	ActionHuntApprovalGrant               Action = "HUNT_APPROVAL_GRANT"
	ActionClientApprovalRequest           Action = "CLIENT_APPROVAL_REQUEST"
	ActionClientApprovalGrant             Action = "CLIENT_APPROVAL_GRANT"
	ActionClientApprovalBreakGlassRequest Action = "CLIENT_APPROVAL_BREAK_GLASS_REQUEST"
	ActionCronApprovalRequest             Action = "CRON_APPROVAL_REQUEST"
	ActionCronApprovalGrant               Action = "CRON_APPROVAL_GRANT"

	// User management events
	ActionUserAdd    Action = "USER_ADD"
	ActionUserUpdate Action = "USER_UPDATE"
	ActionUserDelete Action = "USER_DELETE"
)

var knownActions = map[Action]bool{
	ActionRunFlow:                         true,
	ActionHuntCreated:                     true,
	ActionHuntModified:                    true,
	ActionHuntPaused:                      true,
	ActionHuntStarted:                     true,
	ActionHuntStopped:                     true,
	ActionHuntApprovalRequest:             true,
	ActionHuntApprovalGrant:               true,
	ActionClientApprovalRequest:           true,
	ActionClientApprovalGrant:             true,
	ActionClientApprovalBreakGlassRequest: true,
	ActionCronApprovalRequest:             true,
	ActionCronApprovalGrant:               true,
	ActionUserAdd:                         true,
	ActionUserUpdate:                      true,
	ActionUserDelete:                      true,
}

// ParseAction converts a string to an Action. Matching is case-insensitive.
func ParseAction(s string) (Action, error) {
	if s == "" {
		return ActionUnknown, nil
	}
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	if !knownActions[a] {
		return ActionUnknown, fmt.Errorf("unknown audit action: %q", s)
	}
	return a, nil
}

// Event field names, as used by audit chart used_fields
const (
	FieldAction      = "action"
	FieldClient      = "client"
	FieldDescription = "description"
	FieldFlowName    = "flow_name"
	FieldTimestamp   = "timestamp"
	FieldURN         = "urn"
	FieldUser        = "user"
)

// Event is a single audit log record. Events are never mutated once written.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	Action      Action    `json:"action,omitempty"`
	User        string    `json:"user,omitempty"`
	Client      string    `json:"client,omitempty"`
	Description string    `json:"description,omitempty"`
	URN         string    `json:"urn,omitempty"`
	FlowName    string    `json:"flow_name,omitempty"`
}

// PopulatedFields returns the names of the fields that carry a non-zero value,
// in alphabetical order.
func (e *Event) PopulatedFields() []string {
	var fields []string
	if e.Action != ActionUnknown {
		fields = append(fields, FieldAction)
	}
	if e.Client != "" {
		fields = append(fields, FieldClient)
	}
	if e.Description != "" {
		fields = append(fields, FieldDescription)
	}
	if e.FlowName != "" {
		fields = append(fields, FieldFlowName)
	}
	if !e.Timestamp.IsZero() {
		fields = append(fields, FieldTimestamp)
	}
	if e.URN != "" {
		fields = append(fields, FieldURN)
	}
	if e.User != "" {
		fields = append(fields, FieldUser)
	}
	return fields
}

// Project returns a copy of the event keeping only the named fields
func (e *Event) Project(fields []string) Event {
	var out Event
	for _, f := range fields {
		switch f {
		case FieldAction:
			out.Action = e.Action
		case FieldClient:
			out.Client = e.Client
		case FieldDescription:
			out.Description = e.Description
		case FieldFlowName:
			out.FlowName = e.FlowName
		case FieldTimestamp:
			out.Timestamp = e.Timestamp
		case FieldURN:
			out.URN = e.URN
		case FieldUser:
			out.User = e.User
		}
	}
	return out
}

// ToJSON converts the audit event to JSON
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON parses an audit event from JSON
func FromJSON(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Period is the calendar month a shard covers (UTC)
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing t
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses the "YYYY-MM" form produced by Period.String
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return PeriodOf(t), nil
}

// Start returns the first instant of the period
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant after the period
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Next returns the following period
func (p Period) Next() Period {
	return PeriodOf(p.End())
}

// String formats the period as YYYY-MM
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Contains reports whether t falls inside the period
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start()) && t.Before(p.End())
}

// PeriodsOverlapping returns every period intersecting [start, end), oldest first
func PeriodsOverlapping(start, end time.Time) []Period {
	if !end.After(start) {
		return nil
	}
	var periods []Period
	for p := PeriodOf(start); p.Start().Before(end); p = p.Next() {
		periods = append(periods, p)
	}
	return periods
}
