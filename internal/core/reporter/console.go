package reporter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"pathfinder/internal/core/model"
)

// ConsoleReporter 控制台输出
type ConsoleReporter struct {
	// Verbose 为 true 时打印全部主机的 CVE 与目录探测明细
	Verbose bool
}

func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

func (r *ConsoleReporter) Report(_ context.Context, snap *model.ScanSnapshot) error {
	return r.PrintSnapshot(snap)
}

// PrintTable 渲染任意表格数据，无数据行时不输出
func (r *ConsoleReporter) PrintTable(data TabularData) error {
	out, err := renderTable(data.Headers(), data.Rows())
	if err != nil || out == "" {
		return err
	}
	pterm.Println(out)
	return nil
}

// PrintSnapshot 主机表、统计面板与严重发现
func (r *ConsoleReporter) PrintSnapshot(snap *model.ScanSnapshot) error {
	if snap == nil {
		return nil
	}

	pterm.DefaultSection.Println("Scan Results")
	if snap.Statistics.AliveHosts == 0 {
		pterm.Warning.Println("No alive hosts found.")
	} else if err := r.PrintTable(model.HostRows(snap.Hosts)); err != nil {
		return err
	}

	pterm.DefaultBox.WithTitle("Statistics").Println(statisticsText(snap))

	critical := criticalLines(snap.Hosts)
	if len(critical) > 0 {
		pterm.DefaultSection.Println("Critical Findings")
		for _, line := range critical {
			pterm.FgRed.Println("  " + line)
		}
	}

	if r.Verbose {
		for i := range snap.Hosts {
			h := &snap.Hosts[i]
			if h.CVE != nil && h.CVE.Total > 0 {
				pterm.DefaultSection.WithLevel(2).Printfln("CVE %s", h.IP)
				if err := r.PrintTable(h.CVE); err != nil {
					return err
				}
			}
			if h.Directory != nil && len(h.Directory.Rows()) > 0 {
				pterm.DefaultSection.WithLevel(2).Printfln("Directories %s", h.Directory.BaseURL)
				if err := r.PrintTable(h.Directory); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// PrintDelta 与上一次扫描的差异
func (r *ConsoleReporter) PrintDelta(d *model.ScanDelta) error {
	if d == nil {
		return nil
	}
	pterm.DefaultSection.Println("Changes Since Previous Scan")
	if !d.HasChanges() {
		pterm.Info.Println("No changes detected.")
		return nil
	}

	s := d.Summary
	pterm.Info.Printfln("%s -> %s: %d changes (new hosts %d, gone %d, ports +%d/-%d, os %d, critical +%d/-%d)",
		s.OlderTimestamp.Format("2006-01-02 15:04:05"), s.NewerTimestamp.Format("2006-01-02 15:04:05"),
		s.TotalChanges, s.NewHosts, s.DisappearedHosts, s.NewOpenPorts, s.ClosedPorts,
		s.OSChanges, s.NewCriticalFindings, s.FixedCriticalFindings)
	return r.PrintTable(d)
}

func renderTable(headers []string, rows [][]string) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	data := pterm.TableData{headers}
	data = append(data, rows...)

	out, err := pterm.DefaultTable.
		WithHasHeader(true).
		WithBoxed(false).
		WithData(data).
		Srender()
	if err != nil {
		return "", fmt.Errorf("failed to render table: %w", err)
	}
	return out, nil
}

func statisticsText(snap *model.ScanSnapshot) string {
	st := snap.Statistics
	var b strings.Builder
	fmt.Fprintf(&b, "Range         : %s\n", snap.TargetRange)
	fmt.Fprintf(&b, "Hosts         : %d alive / %d scanned\n", st.AliveHosts, st.TotalHosts)
	fmt.Fprintf(&b, "Open ports    : %d\n", st.TotalOpenPorts)
	fmt.Fprintf(&b, "Critical/High : %d / %d\n", st.CriticalHosts, st.HighRiskHosts)
	fmt.Fprintf(&b, "OS            : %s\n", formatCounts(st.OSDistribution))
	fmt.Fprintf(&b, "Methods       : %s", formatCounts(st.MethodDistribution))
	return b.String()
}

func formatCounts(m map[string]int) string {
	if len(m) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	return strings.Join(parts, ", ")
}

func criticalLines(hosts []model.HostRecord) []string {
	var out []string
	for _, h := range hosts {
		for _, f := range h.SecurityRisks.Critical {
			out = append(out, fmt.Sprintf("%s  %s", h.DisplayName(), f.String()))
		}
	}
	return out
}
