package ring

// Notifier signals the consumer that a frame was published.
type Notifier interface {
	Notify()
}

// NotifyFunc adapts a function to a Notifier.
type NotifyFunc func()

// Notify implements Notifier.
func (f NotifyFunc) Notify() { f() }

// ChanNotifier delivers notifications on a channel. Notifications that
// arrive while one is pending are coalesced, so a receiver must drain all
// occupied slots each time it wakes.
type ChanNotifier struct {
	C chan struct{}
}

// NewChanNotifier returns a ChanNotifier with a one-element buffer.
func NewChanNotifier() *ChanNotifier {
	return &ChanNotifier{C: make(chan struct{}, 1)}
}

// Notify implements Notifier.
func (n *ChanNotifier) Notify() {
	select {
	case n.C <- struct{}{}:
	default:
	}
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify() {
	for _, n := range m {
		n.Notify()
	}
}
