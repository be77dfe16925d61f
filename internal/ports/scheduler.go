package ports

import "time"

// Scheduler runs task once, no earlier than delay from now. There is no
// cancellation; pending tasks are lost if the process exits.
type Scheduler interface {
	Schedule(delay time.Duration, task func())
}
