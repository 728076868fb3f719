package worker

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"thread-worker/internal/events"
	"thread-worker/internal/job"
	"thread-worker/internal/logger"
	"thread-worker/internal/metrics"
	"thread-worker/internal/queue"
)

// ErrPanic はタスクが panic してワーカーが異常終了したことを表す
var ErrPanic = errors.New("worker panicked")

// Task はジョブ1件に対して行う処理
type Task func(j job.Job)

// Sleep は d だけ待つだけのタスクを返す
func Sleep(d time.Duration) Task {
	return func(job.Job) {
		if d > 0 {
			time.Sleep(d)
		}
	}
}

// State はワーカーの状態
type State int32

const (
	StateRunning State = iota
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Config はワーカーの依存先。どれも省略でき、Task の既定は何もしない処理
type Config struct {
	Task    Task
	Metrics *metrics.Metrics
	Bus     *events.Bus
	Logger  *logger.Logger
}

// Worker は JobQueue からジョブを取り出して処理し、結果を ResultChannel に送る
type Worker struct {
	id      int
	scope   string
	jobs    *queue.JobQueue
	results *queue.ResultChannel

	task    Task
	metrics *metrics.Metrics
	bus     *events.Bus
	log     *logger.Logger

	state     atomic.Int32
	processed atomic.Uint64
}

// New は id を持つワーカーを作る。Run を呼ぶまでキューには触れない
func New(id int, jobs *queue.JobQueue, results *queue.ResultChannel, config Config) *Worker {
	task := config.Task
	if task == nil {
		task = Sleep(0)
	}
	m := config.Metrics
	if m == nil {
		m = metrics.New()
	}
	l := config.Logger
	if l == nil {
		l = logger.Default
	}

	l.Debug("pool", "Creating new worker %d", id)

	return &Worker{
		id:      id,
		scope:   fmt.Sprintf("worker-%d", id),
		jobs:    jobs,
		results: results,
		task:    task,
		metrics: m,
		bus:     config.Bus,
		log:     l,
	}
}

// Run は停止信号を受け取るまでジョブを処理し続ける
//
// 停止信号で終了した場合は nil を返す。キューの切断、結果の送信失敗、
// タスクの panic はいずれもこのワーカーにとって致命的で、エラーとして返す
func (w *Worker) Run() (err error) {
	w.metrics.WorkerStarted()
	w.log.Debug(w.scope, "Worker %d starting", w.id)
	w.bus.Publish(events.NewWorkerStartedEvent(w.id))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: worker %d: %v", ErrPanic, w.id, r)
		}
		w.state.Store(int32(StateTerminated))
		w.metrics.WorkerExited()

		if err != nil {
			w.metrics.RecordWorkerFailure(w.id)
			w.log.Error(w.scope, "Worker %d failed: %v", w.id, err)
			w.bus.Publish(events.NewWorkerFailedEvent(w.id, err))
			return
		}
		w.log.Debug(w.scope, "Worker %d terminated after %d jobs", w.id, w.processed.Load())
		w.bus.Publish(events.NewWorkerStoppedEvent(w.id))
	}()

	for {
		msg, err := w.jobs.Receive()
		if err != nil {
			return fmt.Errorf("worker %d: receive job: %w", w.id, err)
		}

		switch m := msg.(type) {
		case queue.JobMessage:
			if err := w.process(m.Job); err != nil {
				return err
			}
		case queue.Stop:
			return nil
		default:
			return fmt.Errorf("worker %d: unexpected message %T", w.id, msg)
		}
	}
}

// process はジョブを1件処理して結果を送信する
func (w *Worker) process(j job.Job) error {
	w.log.Debug(w.scope, "Worker %d received new job containing data: '%s'", w.id, j.Data)

	start := time.Now()
	w.task(j)
	took := time.Since(start)

	// 送れなかった結果は黙って捨てずにエラーにする
	if err := w.results.Send(job.NewResult(w.id, j)); err != nil {
		return fmt.Errorf("worker %d unable to send results: %w", w.id, err)
	}

	w.processed.Add(1)
	w.metrics.RecordCompleted(w.id, took)
	w.bus.Publish(events.NewJobCompletedEvent(w.id, j.ID, j.Data, took))
	return nil
}

func (w *Worker) ID() int {
	return w.id
}

// State は現在の状態を返す
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Processed は結果を送信できたジョブ数を返す
func (w *Worker) Processed() uint64 {
	return w.processed.Load()
}
