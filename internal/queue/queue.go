package queue

import (
	"errors"
	"sync"

	"thread-worker/internal/job"
)

// ErrDisconnected は相手側が切断されたチャネルへの送受信で返る
var ErrDisconnected = errors.New("queue disconnected")

// Channel は切断を検知できる MPMC チャネル
//
// Go のチャネル受信は複数ゴルーチン間で原子的なので、各要素は
// ちょうど1つの受信者に届く。Close 後の Send/Receive は ErrDisconnected を返す
type Channel[T any] struct {
	ch   chan T
	done chan struct{}
	once sync.Once
}

// NewChannel は容量 capacity のチャネルを作る（0 で同期チャネル）
func NewChannel[T any](capacity int) *Channel[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Channel[T]{
		ch:   make(chan T, capacity),
		done: make(chan struct{}),
	}
}

// Send は v を送信する。空きがなければブロックする
func (c *Channel[T]) Send(v T) error {
	// 切断済みなら select の乱択で送信が通ってしまわないよう先に確認
	select {
	case <-c.done:
		return ErrDisconnected
	default:
	}

	select {
	case <-c.done:
		return ErrDisconnected
	case c.ch <- v:
		return nil
	}
}

// Receive は要素が届くまでブロックする
func (c *Channel[T]) Receive() (T, error) {
	var zero T

	select {
	case <-c.done:
		return zero, ErrDisconnected
	default:
	}

	select {
	case <-c.done:
		return zero, ErrDisconnected
	case v := <-c.ch:
		return v, nil
	}
}

// C は select で待ち合わせるための受信側を返す
func (c *Channel[T]) C() <-chan T {
	return c.ch
}

// Done は Close されると閉じられる
func (c *Channel[T]) Done() <-chan struct{} {
	return c.done
}

// Close はチャネルを切断する。複数回呼んでもよい
func (c *Channel[T]) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// Closed は Close 済みかどうかを返す
func (c *Channel[T]) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Len はバッファ中の要素数を返す
func (c *Channel[T]) Len() int {
	return len(c.ch)
}

// Cap はバッファ容量を返す
func (c *Channel[T]) Cap() int {
	return cap(c.ch)
}

// JobQueue はコーディネータからワーカーへジョブと停止信号を運ぶ
type JobQueue = Channel[Message]

// ResultChannel はワーカーからコーディネータへ完了結果を運ぶ
type ResultChannel = Channel[job.Result]

// NewJobQueue は容量 capacity の JobQueue を作る
func NewJobQueue(capacity int) *JobQueue {
	return NewChannel[Message](capacity)
}

// NewResultChannel は容量 capacity の ResultChannel を作る
func NewResultChannel(capacity int) *ResultChannel {
	return NewChannel[job.Result](capacity)
}
