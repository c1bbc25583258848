package charts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tally/pkg/audit"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		data *ReportData
		want RepresentationType
	}{
		{"line", NewLine(nil), LineChart},
		{"pie", NewPie(nil), PieChart},
		{"stack", NewStack(nil, nil, 0), StackChart},
		{"audit", NewAudit([]string{audit.FieldUser}, nil), AuditChart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.data.RepresentationType)
			assert.NoError(t, tt.data.Validate())
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		data    *ReportData
		wantErr string
	}{
		{
			name:    "no payload",
			data:    &ReportData{RepresentationType: PieChart},
			wantErr: "0 payloads set",
		},
		{
			name: "two payloads",
			data: &ReportData{
				RepresentationType: PieChart,
				PieChart:           &Pie{},
				LineChart:          &Line{},
			},
			wantErr: "2 payloads set",
		},
		{
			name:    "tag mismatch",
			data:    &ReportData{RepresentationType: LineChart, PieChart: &Pie{}},
			wantErr: "payload does not match representation type LINE_CHART",
		},
		{
			name:    "unknown tag",
			data:    &ReportData{RepresentationType: "BAR_CHART", PieChart: &Pie{}},
			wantErr: `unknown representation type "BAR_CHART"`,
		},
		{
			name: "audit row outside used fields",
			data: NewAudit([]string{audit.FieldUser}, []audit.Event{
				{User: "User123", Client: "C.1234567890123456"},
			}),
			wantErr: `row 0 sets field "client" missing from used_fields`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidChart)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewAudit_CopiesFields(t *testing.T) {
	fields := []string{audit.FieldUser}
	data := NewAudit(fields, nil)
	fields[0] = "mutated"
	assert.Equal(t, []string{audit.FieldUser}, data.AuditChart.UsedFields)
}

func TestReportData_JSON(t *testing.T) {
	data := NewStack(
		[]Series2D{{Label: "0 B - 2 B", Points: []Point2D{{X: 0, Y: 1}}}},
		[]Tick{{X: 0, Label: "1 B"}},
		0.2,
	)

	encoded, err := json.Marshal(data)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"representation_type": "STACK_CHART",
		"stack_chart": {
			"data": [{"label": "0 B - 2 B", "points": [{"x": 0, "y": 1}]}],
			"x_ticks": [{"x": 0, "label": "1 B"}],
			"bar_width": 0.2
		}
	}`, string(encoded))

	var decoded ReportData
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, *data, decoded)
}

func TestReportData_JSONEmptyPayloads(t *testing.T) {
	encoded, err := json.Marshal(NewPie(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"representation_type":"PIE_CHART","pie_chart":{"data":[]}}`, string(encoded))

	encoded, err = json.Marshal(NewStack(nil, nil, 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"representation_type":"STACK_CHART","stack_chart":{"data":[],"x_ticks":[]}}`, string(encoded))
}

func TestReportData_AuditJSON(t *testing.T) {
	row := audit.Event{
		Timestamp: time.Date(2012, 12, 22, 0, 0, 0, 0, time.UTC),
		Action:    audit.ActionHuntCreated,
		User:      "User123",
		URN:       "aff4:/hunts/H:123456",
	}
	data := NewAudit([]string{audit.FieldAction, audit.FieldDescription, audit.FieldTimestamp, audit.FieldURN, audit.FieldUser}, []audit.Event{row})

	encoded, err := json.Marshal(data)
	require.NoError(t, err)

	var decoded ReportData
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, *data, decoded)
}

func TestReportData_UnmarshalRejectsInvalid(t *testing.T) {
	var decoded ReportData
	err := json.Unmarshal([]byte(`{"representation_type":"LINE_CHART","pie_chart":{"data":[]}}`), &decoded)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidChart)
}
