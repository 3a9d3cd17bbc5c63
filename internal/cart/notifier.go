package cart

import (
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
)

type subscription struct {
	id uint64
	fn func()
}

// notifier is the "cart changed" signal. It carries no payload.
type notifier struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
	log    *logrus.Logger
}

func newNotifier(log *logrus.Logger) *notifier {
	return &notifier{log: log}
}

func (n *notifier) subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()

			n.subs = slices.DeleteFunc(n.subs, func(s subscription) bool {
				return s.id == id
			})
		})
	}
}

// publish calls subscribers in subscription order outside the lock, so a
// subscriber may unsubscribe itself.
func (n *notifier) publish() {
	n.mu.Lock()
	subs := slices.Clone(n.subs)
	n.mu.Unlock()

	for _, s := range subs {
		n.deliver(s)
	}
}

func (n *notifier) deliver(s subscription) {
	defer func() {
		if r := recover(); r != nil {
			n.log.WithFields(logrus.Fields{"subscription": s.id, "panic": r}).Warn("cart change subscriber panicked")
		}
	}()

	s.fn()
}
