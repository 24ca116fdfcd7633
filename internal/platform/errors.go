package platform

import "errors"

var (
	errNoWatcher      = errors.New("pipeline has no watcher")
	errAlreadyRunning = errors.New("pipeline is already running")
)
