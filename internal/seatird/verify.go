package seatird

import (
	"github.com/epimodels/seatird-core/internal/compartment"
	"github.com/epimodels/seatird-core/internal/schedule"
	"github.com/epimodels/seatird-core/pkg/strat"
)

// ScheduleCount returns the number of live (non-cancelled) schedules at the
// node in the given state and stratum.
func (s *Simulation) ScheduleCount(nodeID int, state schedule.State, st strat.Stratum) int {
	q, ok := s.queues[nodeID]
	if !ok {
		return 0
	}
	count := 0
	for _, sched := range q.Items() {
		if !sched.Cancelled() && sched.State() == state && sched.Stratum() == st {
			count++
		}
	}
	return count
}

// VerifySchedules checks the schedule-population invariant at the newest
// day: for every node and stratum, the exposed, asymptomatic, treatable,
// and infectious counts must equal the number of live schedules in the
// matching state. Mismatches are logged and reported; the walk over every
// queue is expensive, so this runs only when self-checking is enabled.
func (s *Simulation) VerifySchedules() bool {
	t := s.store.NumTimes() - 1

	checks := []struct {
		variable string
		state    schedule.State
	}{
		{compartment.Exposed, schedule.StateExposed},
		{compartment.Asymptomatic, schedule.StateAsymptomatic},
		{compartment.Treatable, schedule.StateTreatable},
		{compartment.Infectious, schedule.StateInfectious},
	}

	verified := true
	for _, nodeID := range s.nodeIDs {
		strat.ForEach(func(st strat.Stratum) {
			for _, c := range checks {
				counted := int(s.store.Value(c.variable, t, nodeID, st[0], st[1], st[2]))
				scheduled := s.ScheduleCount(nodeID, c.state, st)
				if counted != scheduled {
					s.log.Warn("schedule count mismatch",
						"node", nodeID,
						"variable", c.variable,
						"stratum", st.String(),
						"compartment", counted,
						"scheduled", scheduled)
					verified = false
				}
			}
		})
	}
	return verified
}
