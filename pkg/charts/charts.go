package charts

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/platinummonkey/tally/pkg/audit"
)

// RepresentationType tags the payload carried by a ReportData
type RepresentationType string

const (
	LineChart  RepresentationType = "LINE_CHART"
	PieChart   RepresentationType = "PIE_CHART"
	StackChart RepresentationType = "STACK_CHART"
	AuditChart RepresentationType = "AUDIT_CHART"
)

// ErrInvalidChart is wrapped by every Validate failure
var ErrInvalidChart = errors.New("invalid chart")

// Point2D is a single x/y sample
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series2D is a labeled sequence of points
type Series2D struct {
	Label  string    `json:"label"`
	Points []Point2D `json:"points"`
}

// Point1D is a labeled pie slice
type Point1D struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
}

// Tick is an axis tick with its display label
type Tick struct {
	X     float64 `json:"x"`
	Label string  `json:"label"`
}

// Line holds line chart series
type Line struct {
	Data []Series2D `json:"data"`
}

// Pie holds pie chart slices
type Pie struct {
	Data []Point1D `json:"data"`
}

// Stack holds stacked bar series plus axis configuration
type Stack struct {
	Data     []Series2D `json:"data"`
	XTicks   []Tick     `json:"x_ticks"`
	BarWidth float64    `json:"bar_width,omitempty"`
}

// Audit holds a table of audit events. Only UsedFields of each row are meaningful.
type Audit struct {
	UsedFields []string      `json:"used_fields"`
	Rows       []audit.Event `json:"rows"`
}

// ReportData is the tagged union returned by report plugins
type ReportData struct {
	RepresentationType RepresentationType `json:"representation_type"`
	LineChart          *Line              `json:"line_chart,omitempty"`
	PieChart           *Pie               `json:"pie_chart,omitempty"`
	StackChart         *Stack             `json:"stack_chart,omitempty"`
	AuditChart         *Audit             `json:"audit_chart,omitempty"`
}

// NewLine returns a line chart. Nil data becomes an empty slice.
func NewLine(data []Series2D) *ReportData {
	if data == nil {
		data = []Series2D{}
	}
	return &ReportData{RepresentationType: LineChart, LineChart: &Line{Data: data}}
}

// NewPie returns a pie chart
func NewPie(data []Point1D) *ReportData {
	if data == nil {
		data = []Point1D{}
	}
	return &ReportData{RepresentationType: PieChart, PieChart: &Pie{Data: data}}
}

// NewStack returns a stack chart
func NewStack(data []Series2D, ticks []Tick, barWidth float64) *ReportData {
	if data == nil {
		data = []Series2D{}
	}
	if ticks == nil {
		ticks = []Tick{}
	}
	return &ReportData{
		RepresentationType: StackChart,
		StackChart:         &Stack{Data: data, XTicks: ticks, BarWidth: barWidth},
	}
}

// NewAudit returns an audit table
func NewAudit(usedFields []string, rows []audit.Event) *ReportData {
	if rows == nil {
		rows = []audit.Event{}
	}
	fields := make([]string, len(usedFields))
	copy(fields, usedFields)
	return &ReportData{
		RepresentationType: AuditChart,
		AuditChart:         &Audit{UsedFields: fields, Rows: rows},
	}
}

// Validate checks that exactly the payload named by the tag is present and,
// for audit tables, that every populated row field is listed in UsedFields.
func (r *ReportData) Validate() error {
	set := 0
	for _, present := range []bool{r.LineChart != nil, r.PieChart != nil, r.StackChart != nil, r.AuditChart != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: %d payloads set, want exactly 1", ErrInvalidChart, set)
	}

	var ok bool
	switch r.RepresentationType {
	case LineChart:
		ok = r.LineChart != nil
	case PieChart:
		ok = r.PieChart != nil
	case StackChart:
		ok = r.StackChart != nil
	case AuditChart:
		ok = r.AuditChart != nil
	default:
		return fmt.Errorf("%w: unknown representation type %q", ErrInvalidChart, r.RepresentationType)
	}
	if !ok {
		return fmt.Errorf("%w: payload does not match representation type %s", ErrInvalidChart, r.RepresentationType)
	}

	if r.AuditChart != nil {
		used := make(map[string]bool, len(r.AuditChart.UsedFields))
		for _, f := range r.AuditChart.UsedFields {
			used[f] = true
		}
		for i := range r.AuditChart.Rows {
			for _, f := range r.AuditChart.Rows[i].PopulatedFields() {
				if !used[f] {
					return fmt.Errorf("%w: row %d sets field %q missing from used_fields", ErrInvalidChart, i, f)
				}
			}
		}
	}
	return nil
}

// UnmarshalJSON decodes and validates a ReportData
func (r *ReportData) UnmarshalJSON(data []byte) error {
	type plain ReportData
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	decoded := ReportData(p)
	if err := decoded.Validate(); err != nil {
		return err
	}
	*r = decoded
	return nil
}
