package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// queueSize bounds the number of undelivered deltas. Validation never blocks
// on delivery; overflow drops the delta and counts it.
const queueSize = 256

// ChangeDelta describes a change to a folder's children set.
type ChangeDelta struct {
	// ID is a unique message id assigned at enqueue time.
	ID string `json:"id"`

	FolderID   string    `json:"folderId"`
	FolderPath string    `json:"folderPath"`
	Added      []string  `json:"added,omitempty"`
	Removed    []string  `json:"removed,omitempty"`
	Time       time.Time `json:"time"`
}

// Transport broadcasts a change message over the external transport layer
// (HTTP/WebSocket). Implementations must not be relied on for delivery; the
// notifier fires and forgets.
type Transport interface {
	SendChangeMessage(delta ChangeDelta)
}

// Listener receives in-process change events.
type Listener func(ChangeDelta)

// Notifier broadcasts catalog change deltas to in-process listeners and the
// transport layer. Delivery is asynchronous: NotifyChanged enqueues and
// returns immediately, and a background dispatcher drains the queue.
type Notifier struct {
	transport Transport

	mu        sync.RWMutex
	listeners []Listener

	queue chan ChangeDelta
	stop  chan struct{}
	done  chan struct{}
}

// New builds a Notifier and starts its dispatcher. transport may be nil.
func New(transport Transport) *Notifier {
	n := &Notifier{
		transport: transport,
		queue:     make(chan ChangeDelta, queueSize),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go n.dispatch()
	return n
}

// Subscribe registers an in-process listener. A notifier with zero
// listeners is a no-op, not an error.
func (n *Notifier) Subscribe(l Listener) {
	n.mu.Lock()
	n.listeners = append(n.listeners, l)
	n.mu.Unlock()
}

// NotifyChanged enqueues a delta for asynchronous delivery. It never blocks:
// if the queue is full the delta is dropped and counted.
func (n *Notifier) NotifyChanged(delta ChangeDelta) {
	if delta.ID == "" {
		delta.ID = uuid.NewString()
	}
	if delta.Time.IsZero() {
		delta.Time = time.Now()
	}

	select {
	case n.queue <- delta:
	default:
		metrics.NotificationsDroppedTotal.Inc()
		logging.Warn("Change notification queue full, dropping delta for %s", delta.FolderPath)
	}
}

// dispatch delivers queued deltas until Close is called, then drains what
// remains in the queue.
func (n *Notifier) dispatch() {
	defer close(n.done)
	for {
		select {
		case delta := <-n.queue:
			n.deliver(delta)
		case <-n.stop:
			for {
				select {
				case delta := <-n.queue:
					n.deliver(delta)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) deliver(delta ChangeDelta) {
	n.mu.RLock()
	listeners := n.listeners
	n.mu.RUnlock()

	for _, l := range listeners {
		l(delta)
	}

	if n.transport != nil {
		n.transport.SendChangeMessage(delta)
	}

	metrics.NotificationsSentTotal.Inc()
	logging.Debug("Dispatched change notification %s for %s (+%d/-%d)",
		delta.ID, delta.FolderPath, len(delta.Added), len(delta.Removed))
}

// Close stops the dispatcher after draining pending deltas.
func (n *Notifier) Close() {
	close(n.stop)
	<-n.done
}
