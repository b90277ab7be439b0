package systems

import "github.com/pthm-cable/hexforage/components"

// Events receives decision-loop outcomes for telemetry.
type Events interface {
	RecordReservation()
	RecordConsumption(eater, food components.Kind)
	RecordStaleTarget()
	RecordPathFailure()
	RecordExploration()
	RecordFlee()
	RecordStarvation(kind components.Kind)
	RecordRegrowth(n int)
}

type noEvents struct{}

func (noEvents) RecordReservation()                            {}
func (noEvents) RecordConsumption(eater, food components.Kind) {}
func (noEvents) RecordStaleTarget()                            {}
func (noEvents) RecordPathFailure()                            {}
func (noEvents) RecordExploration()                            {}
func (noEvents) RecordFlee()                                   {}
func (noEvents) RecordStarvation(kind components.Kind)         {}
func (noEvents) RecordRegrowth(n int)                          {}

func orNoEvents(ev Events) Events {
	if ev == nil {
		return noEvents{}
	}
	return ev
}
