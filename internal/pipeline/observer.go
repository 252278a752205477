package pipeline

import "time"

// Observer receives stage durations. It must not block.
type Observer interface {
	Observe(stage string, d time.Duration)
}

// NopObserver discards observations.
type NopObserver struct{}

func (NopObserver) Observe(string, time.Duration) {}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(stage string, d time.Duration)

func (f ObserverFunc) Observe(stage string, d time.Duration) { f(stage, d) }
