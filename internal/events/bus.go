package events

import (
	"sync"
	"sync/atomic"
)

const defaultBufferSize = 256

// Bus は購読者全員にイベントを配る
type Bus struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	bufferSize  int
	dropped     atomic.Uint64
}

// NewBus はデフォルトのバッファサイズでバスを作る
func NewBus() *Bus {
	return NewBusWithBuffer(defaultBufferSize)
}

// NewBusWithBuffer は購読チャネルのバッファを size にしたバスを作る
func NewBusWithBuffer(size int) *Bus {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Bus{
		subscribers: make(map[chan Event]struct{}),
		bufferSize:  size,
	}
}

// Subscribe は新しい購読チャネルを返す
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	b.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe は購読を解除してチャネルを閉じる
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subscribers {
		if sub == ch {
			delete(b.subscribers, sub)
			close(sub)
			return
		}
	}
}

// Publish はイベントを配信する。ワーカーを止めないよう、
// バッファが埋まった購読者には配らずに捨てる。nil のバスでは何もしない
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Dropped は配信できずに捨てたイベント数を返す
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close は全購読チャネルを閉じる
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, ch)
	}
}
