package driver

import (
	"github.com/ironsheep/packing-defects/internal/analysis"
	"github.com/ironsheep/packing-defects/internal/frames"
)

// outcome is what a worker produces for one frame: a result or an error.
type outcome struct {
	ref    frames.Ref
	result *analysis.FrameResult
	err    error
}

// emitter releases outcomes in frame index order. Outcomes that arrive early
// are held until every lower index has been released.
type emitter struct {
	next    int
	held    map[int]outcome
	release func(outcome) error
}

func newEmitter(first int, release func(outcome) error) *emitter {
	return &emitter{next: first, held: make(map[int]outcome), release: release}
}

// push accepts one outcome and releases every outcome that is now in order.
func (e *emitter) push(o outcome) error {
	e.held[o.ref.Index] = o
	for {
		next, ok := e.held[e.next]
		if !ok {
			return nil
		}
		delete(e.held, e.next)
		e.next++
		if err := e.release(next); err != nil {
			return err
		}
	}
}

// pending returns the number of outcomes still held back.
func (e *emitter) pending() int {
	return len(e.held)
}
