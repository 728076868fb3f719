// Package events publishes worker pool lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType はイベントの種類
type EventType string

const (
	// EventWorkerStarted はワーカーがジョブ待ちループに入ったとき
	EventWorkerStarted EventType = "worker_started"
	// EventJobCompleted はワーカーが結果を送信したとき
	EventJobCompleted EventType = "job_completed"
	// EventWorkerStopped はワーカーが停止信号を受けて終了したとき
	EventWorkerStopped EventType = "worker_stopped"
	// EventWorkerFailed はワーカーが異常終了したとき
	EventWorkerFailed EventType = "worker_failed"
	// EventPoolShutdown はコーディネータが全ワーカーに停止信号を送ったとき
	EventPoolShutdown EventType = "pool_shutdown"
)

// Event はプールで起きた出来事
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	WorkerID  int       `json:"worker_id"`
	Data      EventData `json:"data,omitempty"`
}

// EventData は種類ごとの付加情報
type EventData struct {
	JobID    string `json:"job_id,omitempty"`
	JobData  string `json:"job_data,omitempty"`
	Duration string `json:"duration,omitempty"`
	Workers  int    `json:"workers,omitempty"`
	Error    string `json:"error,omitempty"`
}

func NewWorkerStartedEvent(workerID int) Event {
	return Event{
		Type:      EventWorkerStarted,
		Timestamp: time.Now(),
		WorkerID:  workerID,
	}
}

// NewJobCompletedEvent は workerID が jobID を took かけて完了したイベントを作る
func NewJobCompletedEvent(workerID int, jobID uuid.UUID, data string, took time.Duration) Event {
	return Event{
		Type:      EventJobCompleted,
		Timestamp: time.Now(),
		WorkerID:  workerID,
		Data: EventData{
			JobID:    jobID.String(),
			JobData:  data,
			Duration: took.String(),
		},
	}
}

func NewWorkerStoppedEvent(workerID int) Event {
	return Event{
		Type:      EventWorkerStopped,
		Timestamp: time.Now(),
		WorkerID:  workerID,
	}
}

func NewWorkerFailedEvent(workerID int, err error) Event {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return Event{
		Type:      EventWorkerFailed,
		Timestamp: time.Now(),
		WorkerID:  workerID,
		Data: EventData{
			Error: errMsg,
		},
	}
}

// NewPoolShutdownEvent はワーカー ID を持たないので WorkerID は -1
func NewPoolShutdownEvent(workers int) Event {
	return Event{
		Type:      EventPoolShutdown,
		Timestamp: time.Now(),
		WorkerID:  -1,
		Data: EventData{
			Workers: workers,
		},
	}
}
