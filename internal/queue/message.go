package queue

import "thread-worker/internal/job"

// Message は JobQueue を流れる要素。JobMessage か Stop のどちらか
type Message interface {
	isMessage()
}

// JobMessage は処理すべきジョブ
type JobMessage struct {
	Job job.Job
}

// Stop は受け取ったワーカー1つを終了させる
type Stop struct{}

func (JobMessage) isMessage() {}
func (Stop) isMessage()       {}

// SendJob は j を JobMessage として送る
func SendJob(q *JobQueue, j job.Job) error {
	return q.Send(JobMessage{Job: j})
}

// SendStop は停止信号を1つ送る
func SendStop(q *JobQueue) error {
	return q.Send(Stop{})
}
