package worker

type docState struct {
	taskCh  chan task
	stopCh  chan struct{}
	pending int // guarded by Manager.mu
}

func newDocState(queueSize int) *docState {
	return &docState{
		taskCh: make(chan task, queueSize),
		stopCh: make(chan struct{}),
	}
}
