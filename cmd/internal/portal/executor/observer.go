package executor

import "time"

// AttemptInfo describes one HTTP attempt inside an execution.
type AttemptInfo struct {
	Request  string
	Attempt  int
	Status   int
	Verdict  Verdict
	Err      error
	Duration time.Duration
}

// Observer receives execution telemetry. Implementations must not block.
type Observer interface {
	AttemptFinished(info AttemptInfo)
	ExecutionFinished(request string, elapsed time.Duration, err error)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) AttemptFinished(AttemptInfo)                    {}
func (NopObserver) ExecutionFinished(string, time.Duration, error) {}

type multiObserver []Observer

func (m multiObserver) AttemptFinished(info AttemptInfo) {
	for _, o := range m {
		o.AttemptFinished(info)
	}
}

func (m multiObserver) ExecutionFinished(request string, elapsed time.Duration, err error) {
	for _, o := range m {
		o.ExecutionFinished(request, elapsed, err)
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
	switch len(out) {
	case 0:
		return NopObserver{}
	case 1:
		return out[0]
	}
	return out
}
