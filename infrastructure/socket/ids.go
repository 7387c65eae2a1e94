package socket

import "github.com/mavrogato/othones/domain/entities"

// maxClientID is the last id of the client-side range.
const maxClientID entities.ObjectID = 0xfeffffff

// idAllocator hands out client object ids. Ids return to the pool only
// once the server has confirmed their deletion.
type idAllocator struct {
	free []entities.ObjectID
	next entities.ObjectID
}

func newIDAllocator() *idAllocator {
	return &idAllocator{next: entities.DisplayID + 1}
}

// alloc returns the most recently freed id, or a fresh one. It returns the
// null id once the range is exhausted.
func (a *idAllocator) alloc() entities.ObjectID {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return id
	}
	if a.next > maxClientID {
		return 0
	}
	id := a.next
	a.next++
	return id
}

func (a *idAllocator) release(id entities.ObjectID) {
	if id <= entities.DisplayID || id >= a.next {
		return
	}
	a.free = append(a.free, id)
}
