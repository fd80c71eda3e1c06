package store

// journal records undo steps for writes made while a registry transaction
// is open. Callers hold the owning store's lock.
type journal struct {
	active bool
	undo   []func()
}

func (j *journal) begin() {
	j.active = true
	j.undo = j.undo[:0]
}

func (j *journal) record(fn func()) {
	if j.active {
		j.undo = append(j.undo, fn)
	}
}

func (j *journal) commit() {
	j.active = false
	j.undo = j.undo[:0]
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.commit()
}
