package metrics

import (
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const defaultMaxLatencySamples = 1000

// Config は Metrics の設定
type Config struct {
	MaxLatencySamples int         // P99 計算用に保持するサンプル数
	Collectors        *Collectors // nil なら Prometheus には出さない
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		MaxLatencySamples: defaultMaxLatencySamples,
	}
}

// Metrics は1回のプール実行のジョブ統計を集める
type Metrics struct {
	dispatched     atomic.Uint64
	completed      atomic.Uint64
	failed         atomic.Uint64
	totalLatencyNs atomic.Uint64

	mu                sync.RWMutex
	startTime         time.Time
	latencies         []time.Duration
	maxLatencySamples int

	collectors *Collectors
}

// New はデフォルト設定の Metrics を作る
func New() *Metrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig は設定を指定して Metrics を作る
func NewWithConfig(config Config) *Metrics {
	samples := config.MaxLatencySamples
	if samples <= 0 {
		samples = defaultMaxLatencySamples
	}
	return &Metrics{
		startTime:         time.Now(),
		latencies:         make([]time.Duration, 0, samples),
		maxLatencySamples: samples,
		collectors:        config.Collectors,
	}
}

// RecordDispatched はジョブ投入を1件記録する
func (m *Metrics) RecordDispatched() {
	m.dispatched.Add(1)
	if m.collectors != nil {
		m.collectors.JobsDispatched.Inc()
	}
}

// RecordCompleted は workerID がジョブを latency で完了したことを記録する
func (m *Metrics) RecordCompleted(workerID int, latency time.Duration) {
	m.completed.Add(1)
	m.totalLatencyNs.Add(uint64(latency.Nanoseconds()))

	m.mu.Lock()
	if len(m.latencies) < m.maxLatencySamples {
		m.latencies = append(m.latencies, latency)
	}
	m.mu.Unlock()

	if m.collectors != nil {
		m.collectors.JobsCompleted.WithLabelValues(strconv.Itoa(workerID)).Inc()
		m.collectors.JobDuration.Observe(latency.Seconds())
	}
}

// RecordWorkerFailure はワーカーの異常終了を記録する
func (m *Metrics) RecordWorkerFailure(workerID int) {
	m.failed.Add(1)
	if m.collectors != nil {
		m.collectors.WorkerFailures.WithLabelValues(strconv.Itoa(workerID)).Inc()
	}
}

// WorkerStarted は稼働中ワーカー数を1増やす
func (m *Metrics) WorkerStarted() {
	if m.collectors != nil {
		m.collectors.Workers.Inc()
	}
}

// WorkerExited は稼働中ワーカー数を1減らす
func (m *Metrics) WorkerExited() {
	if m.collectors != nil {
		m.collectors.Workers.Dec()
	}
}

func (m *Metrics) Dispatched() uint64 {
	return m.dispatched.Load()
}

func (m *Metrics) Completed() uint64 {
	return m.completed.Load()
}

func (m *Metrics) WorkerFailures() uint64 {
	return m.failed.Load()
}

// Throughput は開始からの平均完了数/秒を返す
func (m *Metrics) Throughput() float64 {
	elapsed := time.Since(m.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.completed.Load()) / elapsed
}

// AverageLatency は1ジョブあたりの平均処理時間を返す
func (m *Metrics) AverageLatency() time.Duration {
	total := m.completed.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.totalLatencyNs.Load() / total)
}

// P99Latency はサンプルから求めた P99 処理時間を返す
func (m *Metrics) P99Latency() time.Duration {
	m.mu.RLock()
	sorted := slices.Clone(m.latencies)
	m.mu.RUnlock()

	if len(sorted) == 0 {
		return 0
	}
	slices.Sort(sorted)

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Snapshot はある時点の統計
type Snapshot struct {
	Dispatched     uint64        `json:"dispatched"`
	Completed      uint64        `json:"completed"`
	WorkerFailures uint64        `json:"worker_failures"`
	Throughput     float64       `json:"throughput"`
	AverageLatency time.Duration `json:"average_latency"`
	P99Latency     time.Duration `json:"p99_latency"`
	Elapsed        time.Duration `json:"elapsed"`
}

func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Dispatched:     m.Dispatched(),
		Completed:      m.Completed(),
		WorkerFailures: m.WorkerFailures(),
		Throughput:     m.Throughput(),
		AverageLatency: m.AverageLatency(),
		P99Latency:     m.P99Latency(),
		Elapsed:        time.Since(m.startTime),
	}
}
