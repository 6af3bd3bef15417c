package flow

import (
	"sync"

	"github.com/MrEthical07/authflow/signal"
)

// FirstStep is the step of a newly created journey.
const FirstStep = 1

// Wizard is a monotonic step counter with an in-flight flag. The flag is
// informational: overlapping requests are all sent.
type Wizard struct {
	mu       sync.Mutex
	inFlight int
	step    *signal.Cell[int]
	loading *signal.Cell[bool]
}

// NewWizard returns a wizard on FirstStep.
func NewWizard() *Wizard {
	return &Wizard{
		step:    signal.New(FirstStep),
		loading: signal.New(false),
	}
}

// Step returns the current step.
func (w *Wizard) Step() int {
	return w.step.Get()
}

// Next advances by exactly one step and returns the new step.
func (w *Wizard) Next() int {
	return w.step.Update(func(step int) int { return step + 1 })
}

// Loading reports whether a step request is in flight.
func (w *Wizard) Loading() bool {
	return w.loading.Get()
}

// SubscribeStep registers fn for step changes.
func (w *Wizard) SubscribeStep(fn func(int)) func() {
	return w.step.Subscribe(fn)
}

// SubscribeLoading registers fn for loading changes.
func (w *Wizard) SubscribeLoading(fn func(bool)) func() {
	return w.loading.Subscribe(fn)
}

// begin counts a request in flight. Loading stays true until every
// begun request has ended.
func (w *Wizard) begin() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight++
	if w.inFlight == 1 {
		w.loading.Set(true)
	}
}

func (w *Wizard) end() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight == 0 {
		return
	}
	w.inFlight--
	if w.inFlight == 0 {
		w.loading.Set(false)
	}
}
