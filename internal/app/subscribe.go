package app

import "sync"

type subscriber struct {
	mu     sync.Mutex
	fn     func(Snapshot)
	active bool
}

func (s *subscriber) deliver(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.fn(snap)
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned cancel function waits for a delivery in progress and
// guarantees fn is not called after it returns. fn must not call cancel.
func (a *Application) Subscribe(fn func(Snapshot)) (cancel func()) {
	sub := &subscriber{fn: fn, active: true}

	a.subMu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = sub
	a.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subs, id)
			a.subMu.Unlock()

			sub.mu.Lock()
			sub.active = false
			sub.mu.Unlock()
		})
	}
}

func (a *Application) notify() {
	a.subMu.Lock()
	subs := make([]*subscriber, 0, len(a.subs))
	for _, s := range a.subs {
		subs = append(subs, s)
	}
	a.subMu.Unlock()
	if len(subs) == 0 {
		return
	}

	snap := a.Snapshot()
	for _, s := range subs {
		s.deliver(snap)
	}
}
