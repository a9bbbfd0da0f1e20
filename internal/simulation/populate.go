package simulation

import "fmt"

// Populate fast-forwards days worth of ticks from idle: a coarse phase at
// cfg.Simulation.PopulateTicksPerDay for every day before the last
// populateFineDays, then a fine phase at PopulateFineTicksPerDay for the
// remaining days (DESIGN.md's populate fine/coarse clamp: days shorter than
// populateFineDays run entirely at the fine rate). Rejected unless idle
// (§4.8/§6).
func (s *Simulation) Populate(days int) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("simulation: cannot populate from state %q", s.state)
	}
	fineDays := s.cfg.Simulation.PopulateFineDays
	if fineDays < 0 {
		fineDays = 0
	}
	fine := fineDays
	if fine > days {
		fine = days
	}
	coarse := days - fine
	if coarse < 0 {
		coarse = 0
	}

	coarseTicksPerDay := s.cfg.Simulation.PopulateTicksPerDay
	fineTicksPerDay := s.cfg.Simulation.PopulateFineTicksPerDay
	target := coarse*coarseTicksPerDay + fine*fineTicksPerDay

	s.state = StatePopulating
	s.populateCurrent = 0
	s.populateTarget = target
	s.mu.Unlock()

	s.runPopulatePhaseAtRate(coarseTicksPerDay, coarseTicksPerDay*coarse)
	s.runPopulatePhaseAtRate(fineTicksPerDay, fineTicksPerDay*fine)

	s.mu.Lock()
	s.engine.Clock().SetTicksPerDay(s.cfg.Simulation.TicksPerDay)
	s.state = StateIdle
	s.mu.Unlock()
	return nil
}

// PopulateTicks fast-forwards an exact tick count from idle, bypassing the
// coarse/fine day split entirely (§6's populate_ticks(count)).
func (s *Simulation) PopulateTicks(count int) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("simulation: cannot populate from state %q", s.state)
	}
	s.state = StatePopulating
	s.populateCurrent = 0
	s.populateTarget = count
	s.mu.Unlock()

	s.runPopulatePhase(count)

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
	return nil
}

// runPopulatePhase advances n ticks under the write lock, recording each
// one into the tick buffer exactly as the run loop does, and keeping
// populateCurrent up to date for get_state()'s populate_progress.
func (s *Simulation) runPopulatePhase(n int) {
	for i := 0; i < n; i++ {
		s.mu.Lock()
		s.runTickLocked()
		s.populateCurrent++
		s.mu.Unlock()
	}
}

// runPopulatePhaseAtRate sets the clock's cadence to ticksPerDay for the
// duration of one populate phase before advancing n ticks, so tick_scale
// and the new-day boundary both reflect the coarse/fine rate rather than
// Simulation.TicksPerDay (§4.1/§4.8). Populate restores the configured
// cadence once every phase has run.
func (s *Simulation) runPopulatePhaseAtRate(ticksPerDay, n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.engine.Clock().SetTicksPerDay(ticksPerDay)
	s.mu.Unlock()

	s.runPopulatePhase(n)
}
