package broadcast

import (
	"sync"
)

// Event 表示“某个播放实例刚开始播放某首曲目”的进程内通知。
// Origin 是发起会话的标识，订阅方据此忽略自己发出的事件。
type Event struct {
	Origin  string
	TrackID string
}

// Handler 处理一条广播事件
type Handler func(Event)

// Bus 是进程内的发布/订阅总线。互不持有引用的播放实例通过它
// 实现“同一时刻只有一个可闻声源”的互斥，订阅方收到曲目不同的
// 事件后自行暂停。投递是同步的，保证先于下一次用户可见更新。
type Bus struct {
	mu     sync.RWMutex
	nextID int64
	subs   map[int64]Handler
}

// NewBus 创建广播总线
func NewBus() *Bus {
	return &Bus{
		subs: make(map[int64]Handler),
	}
}

var (
	defaultBus  *Bus
	defaultOnce sync.Once
)

// Default 返回进程级共享总线。独立挂载的 standalone 播放实例
// 都订阅这一条总线。
func Default() *Bus {
	defaultOnce.Do(func() {
		defaultBus = NewBus()
	})
	return defaultBus
}

// Subscribe 注册处理函数，返回用于注销的订阅ID
func (b *Bus) Subscribe(h Handler) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[id] = h
	return id
}

// Unsubscribe 注销订阅。重复注销是安全的空操作。
func (b *Bus) Unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs, id)
}

// Publish 将事件投递给所有订阅方。
// 先在锁内复制处理函数列表，避免处理函数重入总线时死锁。
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// SubscriberCount 返回当前订阅数量
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs)
}
