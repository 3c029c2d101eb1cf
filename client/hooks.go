package client

import (
	"os"
	"os/signal"
)

// SignalSource abstracts process signal registration so exit-hook
// behavior can be driven from tests without sending real signals.
type SignalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

// osSignalSource is the default SignalSource backed by os/signal.
type osSignalSource struct{}

func (osSignalSource) Notify(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) }
func (osSignalSource) Stop(c chan<- os.Signal)                     { signal.Stop(c) }
