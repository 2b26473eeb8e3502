package reporter

import (
	"context"
	"errors"

	"pathfinder/internal/core/model"
)

// TabularData 可以被渲染为表格的数据
// 控制台与 CSV 输出都只依赖这个接口
type TabularData interface {
	Headers() []string
	Rows() [][]string
}

var (
	_ TabularData = model.HostRows(nil)
	_ TabularData = (*model.ScanDelta)(nil)
	_ TabularData = (*model.CVEReport)(nil)
	_ TabularData = (*model.DirReport)(nil)
	_ TabularData = (*model.BruteReport)(nil)
)

// Reporter 扫描快照的输出目标
type Reporter interface {
	Report(ctx context.Context, snap *model.ScanSnapshot) error
}

// MultiReporter 同时输出到多个目标 (控制台 + 文件)
type MultiReporter struct {
	reporters []Reporter
}

func NewMultiReporter(reporters ...Reporter) *MultiReporter {
	return &MultiReporter{reporters: reporters}
}

// Report 依次调用全部输出目标，单个失败不影响其余目标
func (m *MultiReporter) Report(ctx context.Context, snap *model.ScanSnapshot) error {
	var errs []error
	for _, r := range m.reporters {
		if err := r.Report(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
