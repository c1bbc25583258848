package stats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tally/pkg/clock"
)

var aggNow = time.Date(2012, 12, 31, 0, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// mockClients mirrors a small fleet: 10 windows clients carrying labels and 10
// linux clients, all last seen 8 to 17 days ago.
func mockClients() []ClientInfo {
	var clients []ClientInfo
	for i := 0; i < 10; i++ {
		clients = append(clients, ClientInfo{
			ID:         fmt.Sprintf("C.0%015X", i),
			Labels:     []string{"Label1", "Label2", "UserLabel"},
			OS:         "Windows",
			OSRelease:  "7",
			GRRVersion: "GRR Monitor 1",
			LastSeen:   aggNow.Add(-time.Duration(8+i) * 24 * time.Hour),
		})
	}
	for i := 0; i < 10; i++ {
		clients = append(clients, ClientInfo{
			ID:         fmt.Sprintf("C.1%015X", i),
			OS:         "Linux",
			OSRelease:  "14.04",
			GRRVersion: "GRR Monitor 1",
			LastSeen:   aggNow.Add(-time.Duration(8+i) * 24 * time.Hour),
		})
	}
	return clients
}

func TestComputeSnapshots(t *testing.T) {
	snaps := ComputeSnapshots(aggNow, mockClients())

	require.Contains(t, snaps, AllClients)
	require.Contains(t, snaps, "Label1")
	assert.Len(t, snaps, 4)

	all := snaps[AllClients]
	assert.Equal(t, map[string]int64{"GRR Monitor 1": 20}, all[Metric{Kind: KindGRRVersion, Days: 30}].Counts)
	assert.Empty(t, all[Metric{Kind: KindGRRVersion, Days: 7}].Counts)
	assert.Equal(t, map[string]int64{"Windows": 10, "Linux": 10}, all[Metric{Kind: KindOS, Days: 30}].Counts)
	assert.Equal(t, map[string]int64{"Windows-7": 10, "Linux-14.04": 10}, all[Metric{Kind: KindOSRelease, Days: 30}].Counts)
	assert.Equal(t, map[string]int64{"60": 20, "30": 20, "7": 0, "3": 0, "1": 0}, all[Metric{Kind: KindLastActive}].Counts)

	label1 := snaps["Label1"]
	assert.Equal(t, map[string]int64{"Windows": 10}, label1[Metric{Kind: KindOS, Days: 30}].Counts)
	assert.Equal(t, aggNow, label1[Metric{Kind: KindOS, Days: 30}].Timestamp)
}

func TestComputeSnapshots_UnknownValues(t *testing.T) {
	snaps := ComputeSnapshots(aggNow, []ClientInfo{{ID: "C.1", LastSeen: aggNow}})
	assert.Equal(t, map[string]int64{"": 1}, snaps[AllClients][Metric{Kind: KindOS, Days: 1}].Counts)
	assert.Equal(t, map[string]int64{"": 1}, snaps[AllClients][Metric{Kind: KindOSRelease, Days: 1}].Counts)
}

func TestComputeSnapshots_NoClients(t *testing.T) {
	assert.Empty(t, ComputeSnapshots(aggNow, nil))
}

func TestAggregator_Run(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	inventory := &StaticInventory{
		ClientList: mockClients(),
		FileList:   []FileRecord{{Hash: "aa", Size: 1 << 20, ClientCount: 1}},
	}

	agg := NewAggregator(inventory, store, clock.Fixed(aggNow), quietLogger())
	result, err := agg.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 20, result.Clients)
	assert.Equal(t, 4, result.Labels)
	assert.Equal(t, 4*(3*len(BreakdownWindows)+1), result.Snapshots)
	assert.Equal(t, 1, result.Files)

	history, err := store.History(ctx, AllClients, Metric{Kind: KindGRRVersion, Days: 30})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, int64(20), history[0].Counts["GRR Monitor 1"])

	files, err := store.Files(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

type failingInventory struct {
	clientsErr error
	filesErr   error
}

func (f *failingInventory) Clients(context.Context) ([]ClientInfo, error) {
	return nil, f.clientsErr
}

func (f *failingInventory) Files(context.Context) ([]FileRecord, error) {
	return nil, f.filesErr
}

func TestAggregator_RunErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewAggregator(&failingInventory{clientsErr: errors.New("db down")}, NewMemoryStore(0), clock.Fixed(aggNow), quietLogger()).Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list clients: db down")

	_, err = NewAggregator(&failingInventory{filesErr: errors.New("timeout")}, NewMemoryStore(0), clock.Fixed(aggNow), quietLogger()).Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list files: timeout")
}
