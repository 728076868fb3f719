package job

import (
	"sync"

	"thread-worker/internal/logger"
)

// Sink は受信した Result を受け取る
type Sink interface {
	Accept(r Result)
}

// SinkFunc は関数を Sink として扱うアダプタ
type SinkFunc func(Result)

func (f SinkFunc) Accept(r Result) { f(r) }

// LogSink は結果をロガーに書き出す
type LogSink struct {
	Logger *logger.Logger
	Scope  string
}

func (s LogSink) Accept(r Result) {
	l := s.Logger
	if l == nil {
		l = logger.Default
	}
	l.Info(s.Scope, "Received completed job data: %s", r)
}

// Collector は受け取った結果を到着順に保持する
type Collector struct {
	mu      sync.Mutex
	results []Result
}

func (c *Collector) Accept(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

// Results は保持している結果のコピーを返す
func (c *Collector) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Result, len(c.results))
	copy(out, c.results)
	return out
}

// Len は保持している件数を返す
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}
