package analyzer

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Render writes the full report to w: summary statistics, hourly pattern,
// trend comparison, then one peak section per tracked metric, in that fixed
// order. A section that fails is reported inline and does not suppress the
// sections after it.
func (a *Analyzer) Render(w io.Writer) error {
	fmt.Fprintln(w, "==============================================")
	fmt.Fprintln(w, " RESOURCE USAGE REPORT")
	fmt.Fprintf(w, " Store:     %s\n", a.store.Path())
	fmt.Fprintf(w, " Samples:   %d\n", a.SampleCount())
	fmt.Fprintf(w, " Generated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w, "==============================================")

	a.renderSummary(w)
	a.renderHourly(w)
	a.renderTrend(w)
	a.renderPeaks(w)

	return nil
}

// WriteReport renders the report into the given file and simultaneously
// echoes it to stdout.
func (a *Analyzer) WriteReport(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	return a.Render(io.MultiWriter(f, os.Stdout))
}

func (a *Analyzer) renderSummary(w io.Writer) {
	fmt.Fprintln(w, "\n--- Summary Statistics ---")

	stats, err := a.Summary()
	if err != nil {
		a.sectionFailed(w, "summary", err)
		return
	}
	for _, s := range stats {
		fmt.Fprintf(w, "%-14s min=%.2f  max=%.2f  avg=%.2f  samples=%d\n",
			s.Metric+":", s.Min, s.Max, s.Mean, s.Count)
	}
}

func (a *Analyzer) renderHourly(w io.Writer) {
	fmt.Fprintln(w, "\n--- Hourly Pattern (all days merged) ---")

	any := false
	for _, b := range a.HourlyPattern() {
		if b.Count == 0 {
			continue
		}
		any = true
		fmt.Fprintf(w, "hour %02d: cpu_total avg %.2f | mem_percent avg %.2f  (%d samples)\n",
			b.Hour, b.AvgCPUTotal, b.AvgMemPercent, b.Count)
	}
	if !any {
		fmt.Fprintln(w, "no samples in any hour bucket")
	}
}

func (a *Analyzer) renderTrend(w io.Writer) {
	fmt.Fprintf(w, "\n--- Trend (first %d vs last %d samples) ---\n", TrendWindow, TrendWindow)

	results, ok, err := a.TrendDetection()
	if err != nil {
		a.sectionFailed(w, "trend", err)
		return
	}
	if !ok {
		fmt.Fprintf(w, "insufficient data: need at least %d samples, have %d\n",
			TrendMinSamples, a.SampleCount())
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "%-14s older avg %.2f -> recent avg %.2f  (delta %+.2f): %s\n",
			r.Metric+":", r.OlderAvg, r.RecentAvg, r.Delta, r.Class)
	}
}

func (a *Analyzer) renderPeaks(w io.Writer) {
	for _, metric := range PeakMetrics {
		th, ok := a.thresholdFor(metric)
		if !ok {
			continue
		}

		fmt.Fprintf(w, "\n--- Peaks: %s ---\n", th)

		peaks, err := a.FindPeaks(metric, th)
		if err != nil {
			a.sectionFailed(w, "peaks "+metric, err)
			continue
		}
		if len(peaks) == 0 {
			fmt.Fprintf(w, "no peaks found for %s\n", metric)
			continue
		}

		for _, p := range peaks {
			if p.First {
				fmt.Fprintf(w, "%s  value=%.2f  (first peak)\n",
					p.Timestamp.Format("2006-01-02 15:04:05"), p.Value)
				continue
			}
			fmt.Fprintf(w, "%s  value=%.2f  (%d min since previous)\n",
				p.Timestamp.Format("2006-01-02 15:04:05"), p.Value, p.SinceMinutes)
		}
	}
}

func (a *Analyzer) sectionFailed(w io.Writer, section string, err error) {
	a.log.Errorf("report section %s failed: %v", section, err)
	fmt.Fprintf(w, "section unavailable: %v\n", err)
}
