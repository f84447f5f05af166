package leave

import "sync"

// employeeLocks serializes balance-affecting operations per employee. Every
// operation that reads a balance and then writes a state change based on it
// (submit, approve, edit, record adjustment, batch carry-over) runs inside
// the employee's lock; pure reads do not.
type employeeLocks struct {
	mu    sync.Mutex
	locks map[EmployeeID]*sync.Mutex
}

func newEmployeeLocks() *employeeLocks {
	return &employeeLocks{locks: make(map[EmployeeID]*sync.Mutex)}
}

// acquire returns the employee's mutex, creating it on first use. Lock
// entries are never removed; the population of employees is small and
// stable relative to process lifetime.
func (el *employeeLocks) acquire(id EmployeeID) *sync.Mutex {
	el.mu.Lock()
	defer el.mu.Unlock()

	l, ok := el.locks[id]
	if !ok {
		l = &sync.Mutex{}
		el.locks[id] = l
	}
	return l
}

func (el *employeeLocks) withLock(id EmployeeID, fn func() error) error {
	l := el.acquire(id)
	l.Lock()
	defer l.Unlock()
	return fn()
}
