package job

import (
	"fmt"
	"iter"

	"github.com/google/uuid"
)

// Job は1件の処理単位。作成後は変更しない
type Job struct {
	ID    uuid.UUID
	Index int
	Data  string
}

// New は data を持つ Job を作成する
func New(index int, data string) Job {
	return Job{
		ID:    uuid.New(),
		Index: index,
		Data:  data,
	}
}

// Result はどのワーカーがどのジョブを完了したかの記録
type Result struct {
	WorkerID int
	JobID    uuid.UUID
	Data     string
}

// NewResult は workerID が j を完了したことを表す Result を作る
func NewResult(workerID int, j Job) Result {
	return Result{
		WorkerID: workerID,
		JobID:    j.ID,
		Data:     j.Data,
	}
}

func (r Result) String() string {
	return fmt.Sprintf("Worker %d completed job with data '%s'", r.WorkerID, r.Data)
}

// Source は投入するジョブ列を供給する
type Source interface {
	Jobs() iter.Seq[Job]
}

// SourceFunc は関数を Source として扱うアダプタ
type SourceFunc func() iter.Seq[Job]

func (f SourceFunc) Jobs() iter.Seq[Job] { return f() }

// Synthetic は "Job #<i> data" を Count 件生成する Source
type Synthetic struct {
	Count int
}

// SyntheticData は i 番目の合成ジョブのペイロードを返す
func SyntheticData(i int) string {
	return fmt.Sprintf("Job #%d data", i)
}

func (s Synthetic) Jobs() iter.Seq[Job] {
	return func(yield func(Job) bool) {
		for i := range s.Count {
			if !yield(New(i, SyntheticData(i))) {
				return
			}
		}
	}
}

// FromData は与えられたペイロード列をそのままジョブにする
func FromData(data ...string) Source {
	return SourceFunc(func() iter.Seq[Job] {
		return func(yield func(Job) bool) {
			for i, d := range data {
				if !yield(New(i, d)) {
					return
				}
			}
		}
	})
}
