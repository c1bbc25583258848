package stats

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/tally/pkg/aggregate"
	"github.com/platinummonkey/tally/pkg/clock"
)

// ClientInfo is the inventory view of one client
type ClientInfo struct {
	ID         string
	Labels     []string
	OS         string
	OSRelease  string
	GRRVersion string
	LastSeen   time.Time
}

// Inventory lists the clients and file store contents statistics are computed from
type Inventory interface {
	Clients(ctx context.Context) ([]ClientInfo, error)
	Files(ctx context.Context) ([]FileRecord, error)
}

// Aggregator computes statistics snapshots from an inventory
type Aggregator struct {
	inventory Inventory
	store     Writer
	clock     clock.Clock
	logger    *logrus.Logger
}

// NewAggregator creates an aggregator writing to store
func NewAggregator(inventory Inventory, store Writer, clk clock.Clock, logger *logrus.Logger) *Aggregator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Aggregator{
		inventory: inventory,
		store:     store,
		clock:     clock.OrReal(clk),
		logger:    logger,
	}
}

// Result summarizes one aggregation run
type Result struct {
	Clients   int
	Labels    int
	Snapshots int
	Files     int
}

// Run computes and stores one snapshot per label and metric, then replaces the
// file records. Labels with no clients get no snapshot.
func (a *Aggregator) Run(ctx context.Context) (*Result, error) {
	now := a.clock.Now()

	clients, err := a.inventory.Clients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	snapshots := ComputeSnapshots(now, clients)
	result := &Result{Clients: len(clients)}

	labels := make([]string, 0, len(snapshots))
	for label := range snapshots {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	result.Labels = len(labels)

	for _, label := range labels {
		for _, m := range sortedMetrics(snapshots[label]) {
			if err := a.store.AppendSnapshot(ctx, label, m, snapshots[label][m]); err != nil {
				return nil, fmt.Errorf("failed to store %s snapshot for label %s: %w", m, label, err)
			}
			result.Snapshots++
		}
	}

	files, err := a.inventory.Files(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	if err := a.store.ReplaceFiles(ctx, files); err != nil {
		return nil, fmt.Errorf("failed to store file records: %w", err)
	}
	result.Files = len(files)

	a.logger.WithFields(logrus.Fields{
		"clients":   result.Clients,
		"labels":    result.Labels,
		"snapshots": result.Snapshots,
		"files":     result.Files,
	}).Info("Statistics aggregated")

	return result, nil
}

// ComputeSnapshots builds, for AllClients and every client label, the breakdown
// snapshots of each activity window plus the last-active snapshot.
func ComputeSnapshots(now time.Time, clients []ClientInfo) map[string]map[Metric]Snapshot {
	byLabel := make(map[string][]ClientInfo)
	for _, c := range clients {
		byLabel[AllClients] = append(byLabel[AllClients], c)
		seen := make(map[string]bool, len(c.Labels))
		for _, l := range c.Labels {
			if l == "" || l == AllClients || seen[l] {
				continue
			}
			seen[l] = true
			byLabel[l] = append(byLabel[l], c)
		}
	}

	out := make(map[string]map[Metric]Snapshot, len(byLabel))
	for label, members := range byLabel {
		metrics := make(map[Metric]Snapshot)

		for _, days := range BreakdownWindows {
			horizon := time.Duration(days) * aggregate.Day
			versions := map[string]int64{}
			oses := map[string]int64{}
			releases := map[string]int64{}
			for _, c := range members {
				if now.Sub(c.LastSeen) > horizon {
					continue
				}
				versions[c.GRRVersion]++
				oses[c.OS]++
				releases[osReleaseKey(c)]++
			}
			metrics[Metric{Kind: KindGRRVersion, Days: days}] = Snapshot{Timestamp: now, Counts: versions}
			metrics[Metric{Kind: KindOS, Days: days}] = Snapshot{Timestamp: now, Counts: oses}
			metrics[Metric{Kind: KindOSRelease, Days: days}] = Snapshot{Timestamp: now, Counts: releases}
		}

		lastSeen := make([]time.Time, len(members))
		for i, c := range members {
			lastSeen[i] = c.LastSeen
		}
		active := aggregate.LastActive(now, lastSeen, aggregate.DefaultLastActiveThresholds)
		counts := make(map[string]int64, len(active))
		for i, days := range aggregate.DefaultLastActiveThresholds {
			counts[strconv.Itoa(days)] = active[i]
		}
		metrics[Metric{Kind: KindLastActive}] = Snapshot{Timestamp: now, Counts: counts}

		out[label] = metrics
	}
	return out
}

// osReleaseKey joins OS and release the way the dashboard shows them ("Linux-14.04")
func osReleaseKey(c ClientInfo) string {
	switch {
	case c.OS == "" && c.OSRelease == "":
		return ""
	case c.OSRelease == "":
		return c.OS
	case c.OS == "":
		return c.OSRelease
	}
	return c.OS + "-" + c.OSRelease
}

func sortedMetrics(m map[Metric]Snapshot) []Metric {
	metrics := make([]Metric, 0, len(m))
	for k := range m {
		metrics = append(metrics, k)
	}
	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].String() < metrics[j].String()
	})
	return metrics
}
