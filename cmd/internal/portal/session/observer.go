package session

// Observer receives lifecycle notifications from an Acquirer and a Store.
//
// Callbacks run on the acquiring goroutine while the Store lock is held,
// so implementations must not call back into the Store and must not block.
type Observer interface {
	AttemptFinished(result AttemptResult)
	Invalidated(prev Session)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) AttemptFinished(AttemptResult) {}
func (NopObserver) Invalidated(Session)           {}

type multiObserver []Observer

func (m multiObserver) AttemptFinished(r AttemptResult) {
	for _, o := range m {
		o.AttemptFinished(r)
	}
}

func (m multiObserver) Invalidated(prev Session) {
	for _, o := range m {
		o.Invalidated(prev)
	}
}

// Observers fans notifications out to every non-nil observer.
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return NopObserver{}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}
