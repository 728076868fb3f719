package pool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"thread-worker/internal/cpu"
	"thread-worker/internal/events"
	"thread-worker/internal/job"
	"thread-worker/internal/logger"
	"thread-worker/internal/metrics"
	"thread-worker/internal/queue"
	"thread-worker/internal/worker"
)

const scope = "pool"

var (
	ErrNotStarted     = errors.New("pool not started")
	ErrAlreadyStarted = errors.New("pool already started")
	ErrShutdown       = errors.New("pool already shut down")
	// ErrUnbalanced は投入数と回収数が一致しないまま停止しようとしたときに返る
	ErrUnbalanced = errors.New("dispatched and collected job counts differ")
	// ErrWorkerLost はワーカーが異常終了して結果が揃わなくなったときに返る
	ErrWorkerLost = errors.New("worker terminated abnormally")
)

// Config はプールの設定
type Config struct {
	Workers     int         // ワーカー数（0で Cores のコア数）
	Cores       cpu.Counter // Workers が0のときに使うコア数
	QueueFactor int         // キュー容量 = ワーカー数 * QueueFactor
	Task        worker.Task // 各ジョブに対する処理

	Metrics *metrics.Metrics
	Bus     *events.Bus
	Logger  *logger.Logger
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Workers:     0,
		Cores:       cpu.Physical{},
		QueueFactor: 100,
		Task:        worker.Sleep(100 * time.Millisecond),
	}
}

// Pool はワーカーの生成、ジョブ投入、結果回収、停止、合流を受け持つ
type Pool struct {
	numWorkers int
	config     Config
	log        *logger.Logger
	metrics    *metrics.Metrics

	jobs    *queue.JobQueue
	results *queue.ResultChannel

	// lifecycle は投入（読み取り側）と停止（書き込み側）を排他にする
	lifecycle sync.RWMutex
	started   atomic.Bool
	stopped   bool
	workers   []*worker.Worker
	group     errgroup.Group

	dispatched atomic.Uint64
	collected  atomic.Uint64

	failOnce sync.Once
	failed   chan struct{}
	cause    error
}

// New はプールを作る。ワーカーは Start まで起動しない
func New(config Config) *Pool {
	l := config.Logger
	if l == nil {
		l = logger.Default
	}
	if config.Cores == nil {
		config.Cores = cpu.Physical{}
	}
	if config.Task == nil {
		config.Task = worker.Sleep(0)
	}
	m := config.Metrics
	if m == nil {
		m = metrics.New()
	}

	numWorkers := config.Workers
	if numWorkers <= 0 {
		numWorkers = config.Cores.Cores()
		l.Info(scope, "Found %d physical cores", numWorkers)
	}
	queueFactor := config.QueueFactor
	if queueFactor <= 0 {
		queueFactor = 100
	}
	capacity := numWorkers * queueFactor

	return &Pool{
		numWorkers: numWorkers,
		config:     config,
		log:        l,
		metrics:    m,
		jobs:       queue.NewJobQueue(capacity),
		results:    queue.NewResultChannel(capacity),
		failed:     make(chan struct{}),
	}
}

// Start はワーカーを NumWorkers 個起動する
func (p *Pool) Start() error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if p.started.Load() {
		return ErrAlreadyStarted
	}

	wcfg := worker.Config{
		Task:    p.config.Task,
		Metrics: p.metrics,
		Bus:     p.config.Bus,
		Logger:  p.log,
	}
	p.workers = make([]*worker.Worker, 0, p.numWorkers)
	for i := range p.numWorkers {
		w := worker.New(i, p.jobs, p.results, wcfg)
		p.workers = append(p.workers, w)
		p.group.Go(func() error {
			if err := w.Run(); err != nil {
				err = fmt.Errorf("%w: %w", ErrWorkerLost, err)
				p.fail(err)
				return err
			}
			return nil
		})
	}
	p.started.Store(true)

	p.log.Info(scope, "Pool started with %d workers (queue capacity %d)", p.numWorkers, p.jobs.Cap())
	return nil
}

// fail は最初の致命的エラーを記録し、両チャネルを切断して
// ブロック中の投入・回収・ワーカーをすべて解放する
func (p *Pool) fail(err error) {
	p.failOnce.Do(func() {
		p.cause = err
		close(p.failed)
		p.jobs.Close()
		p.results.Close()
		p.log.Error(scope, "Pool aborted: %v", err)
	})
}

// failure は記録済みの致命的エラーを返す
func (p *Pool) failure() error {
	select {
	case <-p.failed:
		return p.cause
	default:
		return nil
	}
}

// Submit はジョブを1件キューに入れる。キューが満杯ならブロックする
func (p *Pool) Submit(j job.Job) error {
	p.lifecycle.RLock()
	defer p.lifecycle.RUnlock()

	if !p.started.Load() {
		return ErrNotStarted
	}
	if p.stopped {
		return ErrShutdown
	}

	if err := queue.SendJob(p.jobs, j); err != nil {
		if cause := p.failure(); cause != nil {
			return fmt.Errorf("failed to send job %d: %w", j.Index, cause)
		}
		err = fmt.Errorf("failed to send job %d: %w", j.Index, err)
		p.fail(err)
		return err
	}

	p.dispatched.Add(1)
	p.metrics.RecordDispatched()
	return nil
}

// Dispatch は jobs を順に Submit する
func (p *Pool) Dispatch(jobs []job.Job) error {
	for _, j := range jobs {
		if err := p.Submit(j); err != nil {
			return err
		}
	}
	return nil
}

// Collect は結果をちょうど n 件受信するまでブロックする
//
// ワーカーが異常終了した場合は途中で打ち切り、部分的な結果は返さない
func (p *Pool) Collect(n int) ([]job.Result, error) {
	return p.collect(n, nil)
}

func (p *Pool) collect(n int, sink job.Sink) ([]job.Result, error) {
	if !p.started.Load() {
		return nil, ErrNotStarted
	}

	results := make([]job.Result, 0, max(n, 0))
	for i := range n {
		select {
		case <-p.failed:
			return nil, fmt.Errorf("collect aborted after %d of %d results: %w", i, n, p.cause)
		case r := <-p.results.C():
			p.collected.Add(1)
			results = append(results, r)
			if sink != nil {
				sink.Accept(r)
			}
		}
	}
	return results, nil
}

// Shutdown はワーカー1つにつき1つずつ停止信号を送る
//
// 投入済みのジョブの結果をすべて回収してから呼ぶ必要がある。そうでなければ
// ErrUnbalanced を返し、停止信号は送らない
func (p *Pool) Shutdown() error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if !p.started.Load() {
		return ErrNotStarted
	}
	if p.stopped {
		return ErrShutdown
	}
	if cause := p.failure(); cause != nil {
		return cause
	}

	dispatched, collected := p.dispatched.Load(), p.collected.Load()
	if dispatched != collected {
		return fmt.Errorf("%w: %d dispatched, %d collected", ErrUnbalanced, dispatched, collected)
	}

	for range p.workers {
		p.log.Debug(scope, "Terminating a worker")
		if err := queue.SendStop(p.jobs); err != nil {
			if cause := p.failure(); cause != nil {
				return cause
			}
			return fmt.Errorf("failed to send stop signal: %w", err)
		}
	}
	p.stopped = true

	p.config.Bus.Publish(events.NewPoolShutdownEvent(len(p.workers)))
	p.log.Info(scope, "Sent %d stop signals", len(p.workers))
	return nil
}

// Join は全ワーカーの終了を待つ。Shutdown か異常終了の後でなければ戻らない
//
// ワーカーが異常終了していればその原因を返す
func (p *Pool) Join() error {
	if !p.started.Load() {
		return ErrNotStarted
	}

	err := p.group.Wait()
	if cause := p.failure(); cause != nil {
		return cause
	}
	if err == nil {
		p.log.Info(scope, "All %d workers terminated", p.numWorkers)
	}
	return err
}

// NumWorkers はワーカー数を返す
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// QueueSize はキュー内の未取得エントリ数を返す
func (p *Pool) QueueSize() int {
	return p.jobs.Len()
}

// Dispatched は投入済みジョブ数を返す
func (p *Pool) Dispatched() uint64 {
	return p.dispatched.Load()
}

// Collected は回収済み結果数を返す
func (p *Pool) Collected() uint64 {
	return p.collected.Load()
}

// Metrics はプールのメトリクスを返す
func (p *Pool) Metrics() *metrics.Metrics {
	return p.metrics
}

// WorkerInfo はワーカー1つの状態
type WorkerInfo struct {
	ID        int    `json:"id"`
	State     string `json:"state"`
	Processed uint64 `json:"processed"`
}

// Workers は全ワーカーの状態を返す
func (p *Pool) Workers() []WorkerInfo {
	p.lifecycle.RLock()
	defer p.lifecycle.RUnlock()

	infos := make([]WorkerInfo, 0, len(p.workers))
	for _, w := range p.workers {
		infos = append(infos, WorkerInfo{
			ID:        w.ID(),
			State:     w.State().String(),
			Processed: w.Processed(),
		})
	}
	return infos
}

// Terminated は終了済みワーカー数を返す
func (p *Pool) Terminated() int {
	p.lifecycle.RLock()
	defer p.lifecycle.RUnlock()

	n := 0
	for _, w := range p.workers {
		if w.State() == worker.StateTerminated {
			n++
		}
	}
	return n
}
