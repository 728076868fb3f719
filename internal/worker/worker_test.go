package worker

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"thread-worker/internal/events"
	"thread-worker/internal/job"
	"thread-worker/internal/logger"
	"thread-worker/internal/metrics"
	"thread-worker/internal/queue"
)

func runAsync(w *Worker) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run() }()
	return errCh
}

func waitErr(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for worker to exit")
		return nil
	}
}

func TestStateString(t *testing.T) {
	if StateRunning.String() != "running" || StateTerminated.String() != "terminated" {
		t.Error("unexpected state names")
	}
	if State(9).String() != "unknown" {
		t.Error("expected unknown for invalid state")
	}
}

func TestWorkerProcessesJobsThenStops(t *testing.T) {
	jobs := queue.NewJobQueue(8)
	results := queue.NewResultChannel(8)
	m := metrics.New()

	w := New(5, jobs, results, Config{Metrics: m})
	if w.State() != StateRunning {
		t.Errorf("expected running, got %s", w.State())
	}

	for i := range 3 {
		if err := queue.SendJob(jobs, job.New(i, job.SyntheticData(i))); err != nil {
			t.Fatal(err)
		}
	}
	_ = queue.SendStop(jobs)

	if err := waitErr(t, runAsync(w)); err != nil {
		t.Fatalf("expected clean exit, got %v", err)
	}

	if w.State() != StateTerminated {
		t.Errorf("expected terminated, got %s", w.State())
	}
	if w.Processed() != 3 || m.Completed() != 3 {
		t.Errorf("expected 3 processed, got %d (metrics %d)", w.Processed(), m.Completed())
	}

	// 単一ワーカーなので投入順に届く
	for i := range 3 {
		r := <-results.C()
		want := "Worker 5 completed job with data '" + job.SyntheticData(i) + "'"
		if r.String() != want {
			t.Errorf("result %d = %q, want %q", i, r.String(), want)
		}
	}
}

func TestWorkerStopIsNotConsumedTwice(t *testing.T) {
	jobs := queue.NewJobQueue(4)
	results := queue.NewResultChannel(4)

	w := New(0, jobs, results, Config{})
	_ = queue.SendStop(jobs)
	_ = queue.SendStop(jobs)

	if err := waitErr(t, runAsync(w)); err != nil {
		t.Fatal(err)
	}
	if jobs.Len() != 1 {
		t.Errorf("expected the second stop to remain queued, got len %d", jobs.Len())
	}
}

func TestWorkerRunsTask(t *testing.T) {
	jobs := queue.NewJobQueue(2)
	results := queue.NewResultChannel(2)

	var seen []string
	w := New(0, jobs, results, Config{
		Task: func(j job.Job) { seen = append(seen, j.Data) },
	})

	_ = queue.SendJob(jobs, job.New(0, "payload"))
	_ = queue.SendStop(jobs)

	if err := waitErr(t, runAsync(w)); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 || seen[0] != "payload" {
		t.Errorf("expected task to see payload, got %v", seen)
	}
}

func TestWorkerResultSendFailureIsFatal(t *testing.T) {
	jobs := queue.NewJobQueue(2)
	results := queue.NewResultChannel(0)
	results.Close() // 受信側がいない

	w := New(1, jobs, results, Config{})
	_ = queue.SendJob(jobs, job.New(0, "lost"))

	err := waitErr(t, runAsync(w))
	if !errors.Is(err, queue.ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected, got %v", err)
	}
	if !strings.Contains(err.Error(), "worker 1 unable to send results") {
		t.Errorf("unexpected error text: %v", err)
	}
	if w.State() != StateTerminated {
		t.Error("expected worker to be terminated")
	}
	if w.Processed() != 0 {
		t.Errorf("expected no processed jobs, got %d", w.Processed())
	}
}

func TestWorkerQueueDisconnected(t *testing.T) {
	jobs := queue.NewJobQueue(0)
	results := queue.NewResultChannel(0)

	w := New(0, jobs, results, Config{})
	errCh := runAsync(w)

	time.Sleep(10 * time.Millisecond)
	jobs.Close()

	if err := waitErr(t, errCh); !errors.Is(err, queue.ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected, got %v", err)
	}
}

func TestWorkerPanicBecomesError(t *testing.T) {
	jobs := queue.NewJobQueue(1)
	results := queue.NewResultChannel(1)
	m := metrics.New()
	bus := events.NewBus()
	sub := bus.Subscribe()

	buf := &bytes.Buffer{}
	w := New(2, jobs, results, Config{
		Task:    func(job.Job) { panic("bad payload") },
		Metrics: m,
		Bus:     bus,
		Logger:  logger.New(buf, logger.LevelDebug),
	})
	_ = queue.SendJob(jobs, job.New(0, "x"))

	err := waitErr(t, runAsync(w))
	if !errors.Is(err, ErrPanic) {
		t.Fatalf("expected ErrPanic, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad payload") {
		t.Errorf("expected panic value in error, got %v", err)
	}
	if m.WorkerFailures() != 1 {
		t.Errorf("expected 1 recorded failure, got %d", m.WorkerFailures())
	}
	if !strings.Contains(buf.String(), "[ERROR] [worker-2]") {
		t.Errorf("expected error log, got: %s", buf.String())
	}

	var failed bool
	for len(sub) > 0 {
		if e := <-sub; e.Type == events.EventWorkerFailed {
			failed = true
		}
	}
	if !failed {
		t.Error("expected worker_failed event")
	}
}

func TestWorkerPublishesLifecycleEvents(t *testing.T) {
	jobs := queue.NewJobQueue(2)
	results := queue.NewResultChannel(2)
	bus := events.NewBus()
	sub := bus.Subscribe()

	w := New(0, jobs, results, Config{Bus: bus})
	_ = queue.SendJob(jobs, job.New(0, "x"))
	_ = queue.SendStop(jobs)

	if err := waitErr(t, runAsync(w)); err != nil {
		t.Fatal(err)
	}

	want := []events.EventType{events.EventWorkerStarted, events.EventJobCompleted, events.EventWorkerStopped}
	for i, typ := range want {
		select {
		case e := <-sub:
			if e.Type != typ {
				t.Errorf("event %d: expected %s, got %s", i, typ, e.Type)
			}
		default:
			t.Fatalf("event %d: missing %s", i, typ)
		}
	}
}

func TestSleepTask(t *testing.T) {
	start := time.Now()
	Sleep(20 * time.Millisecond)(job.New(0, ""))
	if time.Since(start) < 20*time.Millisecond {
		t.Error("expected Sleep task to wait")
	}
}
