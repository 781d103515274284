// AngelaMos | 2026
// rollup.go

package workflow

// DeriveBriefStatus computes a brief's aggregate status from its tasks:
// published once every task is published, in_progress while any task is
// in progress, pending otherwise. A brief without tasks is pending.
func DeriveBriefStatus(tasks []Status) Status {
	if len(tasks) == 0 {
		return StatusPending
	}

	allPublished := true
	anyInProgress := false
	for _, s := range tasks {
		if s != StatusPublished {
			allPublished = false
		}
		if s == StatusInProgress {
			anyInProgress = true
		}
	}

	switch {
	case allPublished:
		return StatusPublished
	case anyInProgress:
		return StatusInProgress
	default:
		return StatusPending
	}
}

func StatusCounts(tasks []Status) map[Status]int {
	counts := make(map[Status]int, len(statuses))
	for _, s := range tasks {
		counts[s]++
	}
	return counts
}
