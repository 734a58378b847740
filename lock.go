package maprender

import "sync"

// LockID names a process-wide lock that guards a non-reentrant shared resource.
type LockID int

// see LockID
const (
	LockFont LockID = iota
	LockPixmap
	LockSVG
	LockSource // data sources that are not safe for concurrent reading
	numLocks
)

var locks [numLocks]sync.Mutex

// acquire locks id and returns the release function.
func acquire(id LockID) func() {
	locks[id].Lock()
	return locks[id].Unlock
}

// Acquire locks the named lock and returns its release function, for external collaborators that share a non-reentrant library between concurrent renders.
func Acquire(id LockID) func() {
	return acquire(id)
}
