package async

import "errors"

var (
	ErrTimeout           = errors.New("async: operation timed out waiting for future completion")
	ErrQueueFull         = errors.New("async: dispatcher queue is full")
	ErrNilJob            = errors.New("async: nil job submitted to dispatcher")
	ErrDispatcherStopped = errors.New("async: dispatcher is stopped")
)
