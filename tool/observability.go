package tool

// InvokeObservation captures one webhook invocation outcome.
type InvokeObservation struct {
	RequestID  string
	ToolName   string
	Endpoint   string
	StatusCode int
	DurationMS int64
	Success    bool
	ErrorCode  string
}

// Observer receives tool-level observability events.
type Observer interface {
	ObserveInvoke(observation InvokeObservation)
}

type noopObserver struct{}

func (noopObserver) ObserveInvoke(InvokeObservation) {}
