package pool

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"thread-worker/internal/job"
	"thread-worker/internal/metrics"
)

// Report は1回の実行結果
type Report struct {
	Workers   int              `json:"workers"`
	Jobs      int              `json:"jobs"`
	Results   []job.Result     `json:"results"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	Elapsed   time.Duration    `json:"elapsed"`
	Metrics   metrics.Snapshot `json:"metrics"`
}

// Run は起動、投入、回収、停止、合流を順に行う
//
// 投入は別ゴルーチンで行い回収と並行させるので、ジョブ数がキュー容量を
// 超えても詰まらない。結果は到着ごとに sink に渡す（nil 可）
func (p *Pool) Run(src job.Source, sink job.Sink) (*Report, error) {
	jobs := slices.Collect(src.Jobs())

	report := &Report{
		Workers:   p.numWorkers,
		Jobs:      len(jobs),
		StartTime: time.Now(),
	}

	if err := p.Start(); err != nil {
		return nil, err
	}

	dispatchErr := make(chan error, 1)
	go func() {
		dispatchErr <- p.Dispatch(jobs)
	}()

	results, err := p.collect(len(jobs), sink)
	if err != nil {
		// fail 済みなので全ワーカーは戻ってくる
		_ = p.Join()
		return nil, err
	}
	if err := <-dispatchErr; err != nil {
		_ = p.Join()
		return nil, fmt.Errorf("dispatch failed: %w", err)
	}

	if err := p.Shutdown(); err != nil {
		return nil, fmt.Errorf("shutdown failed: %w", err)
	}
	if err := p.Join(); err != nil {
		return nil, fmt.Errorf("join failed: %w", err)
	}

	report.Results = results
	report.EndTime = time.Now()
	report.Elapsed = report.EndTime.Sub(report.StartTime)
	report.Metrics = p.metrics.Snapshot()
	return report, nil
}

// String は人が読むためのレポートを返す
func (r *Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, `
================================================================================
                            WORKER POOL REPORT
================================================================================

  Workers:        %d
  Jobs:           %d
  Results:        %d
  Elapsed:        %v
  Avg Job Time:   %v
  P99 Job Time:   %v

RESULTS
-------
`,
		r.Workers,
		r.Jobs,
		len(r.Results),
		r.Elapsed.Round(time.Millisecond),
		r.Metrics.AverageLatency.Round(time.Microsecond),
		r.Metrics.P99Latency.Round(time.Microsecond),
	)

	for _, res := range r.Results {
		fmt.Fprintf(&b, "  %s\n", res)
	}

	b.WriteString("\n================================================================================")
	return b.String()
}

// PerWorker はワーカーごとの完了件数を返す
func (r *Report) PerWorker() map[int]int {
	counts := make(map[int]int, r.Workers)
	for _, res := range r.Results {
		counts[res.WorkerID]++
	}
	return counts
}
