package digest

import "sync"

// Inflight tracks chats with a digest build currently in progress, so a
// scheduled sweep and a manual trigger for the same chat cannot produce
// duplicate deliveries. Builds for different chats run freely in parallel.
type Inflight struct {
	mu    sync.Mutex
	chats map[int64]struct{}
}

// NewInflight creates an empty in-flight tracker.
func NewInflight() *Inflight {
	return &Inflight{chats: make(map[int64]struct{})}
}

// TryAcquire marks a chat as having a digest build in flight. It returns
// false if one is already running for that chat.
func (i *Inflight) TryAcquire(chatID int64) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, busy := i.chats[chatID]; busy {
		return false
	}
	i.chats[chatID] = struct{}{}
	return true
}

// Release clears the in-flight mark for a chat.
func (i *Inflight) Release(chatID int64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.chats, chatID)
}
