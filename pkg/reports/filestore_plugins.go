package reports

import (
	"context"

	"github.com/platinummonkey/tally/pkg/aggregate"
	"github.com/platinummonkey/tally/pkg/charts"
	"github.com/platinummonkey/tally/pkg/stats"
)

type fileStorePlugin struct {
	base
}

func (p *fileStorePlugin) files(ctx context.Context) ([]stats.FileRecord, error) {
	if p.src.FileStore == nil {
		return nil, upstream("file store stats", errNoSource)
	}
	files, err := p.src.FileStore.Files(ctx)
	if err != nil {
		return nil, upstream("file store stats", err)
	}
	return files, nil
}

// fileSizePlugin buckets file sizes on a log scale
type fileSizePlugin struct {
	fileStorePlugin
}

func newFileSizePlugin(desc Descriptor, src Sources) Plugin {
	return &fileSizePlugin{fileStorePlugin{base{desc: desc, src: src}}}
}

func (p *fileSizePlugin) GetReportData(ctx context.Context, _ Request) (*charts.ReportData, error) {
	files, err := p.files(ctx)
	if err != nil {
		return nil, err
	}

	sizes := make([]float64, len(files))
	for i, f := range files {
		sizes[i] = float64(f.Size)
	}

	buckets := aggregate.SizeBuckets
	series := buckets.Series(buckets.Count(sizes))
	return charts.NewStack(series, aggregate.SizeTicks(), aggregate.SizeBarWidth), nil
}

// fileClientCountPlugin buckets files by how many clients reference them
type fileClientCountPlugin struct {
	fileStorePlugin
}

func newFileClientCountPlugin(desc Descriptor, src Sources) Plugin {
	return &fileClientCountPlugin{fileStorePlugin{base{desc: desc, src: src}}}
}

func (p *fileClientCountPlugin) GetReportData(ctx context.Context, _ Request) (*charts.ReportData, error) {
	files, err := p.files(ctx)
	if err != nil {
		return nil, err
	}

	counts := make([]int64, len(files))
	for i, f := range files {
		counts[i] = f.ClientCount
	}

	buckets := aggregate.ClientCountBuckets
	series := buckets.Series(buckets.Count(counts))
	return charts.NewStack(series, nil, 0), nil
}
