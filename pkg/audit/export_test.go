package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSV(t *testing.T) {
	events := []Event{
		{
			Timestamp:   time.Date(2012, 12, 22, 10, 0, 0, 0, time.UTC),
			Action:      ActionClientApprovalRequest,
			User:        "User123",
			Client:      "C.1234567890123456",
			Description: "Needs, commas",
		},
		{Action: ActionClientApprovalGrant, User: "User456"},
	}

	data, err := ExportCSV([]string{FieldAction, FieldClient, FieldDescription, FieldTimestamp, FieldUser}, events)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "action,client,description,timestamp,user", lines[0])
	assert.Equal(t, `CLIENT_APPROVAL_REQUEST,C.1234567890123456,"Needs, commas",2012-12-22T10:00:00Z,User123`, lines[1])
	assert.Equal(t, "CLIENT_APPROVAL_GRANT,,,,User456", lines[2])
}

func TestExportCSV_EmptyEvents(t *testing.T) {
	data, err := ExportCSV([]string{FieldUser}, nil)
	require.NoError(t, err)
	assert.Equal(t, "user\n", string(data))
}

func TestExportNDJSON(t *testing.T) {
	data, err := ExportNDJSON(sampleEvents())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)

	decoded, err := FromJSON([]byte(lines[0]))
	require.NoError(t, err)
	assert.Equal(t, sampleEvents()[0], *decoded)
}
