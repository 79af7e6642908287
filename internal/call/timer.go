package call

// scheduleTickLocked arms the next session-timer tick for generation gen.
// A tick whose generation is stale does nothing, so at most one chain runs.
func (c *Controller) scheduleTickLocked(gen uint64) {
	c.ticker = c.clock.AfterFunc(c.opts.TickInterval, func() { c.tick(gen) })
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.timerGen || c.state.Status != StatusActive || c.state.discarded {
		c.mu.Unlock()
		return
	}
	c.state.ElapsedSeconds++
	c.scheduleTickLocked(gen)
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.notes.deliver(snap.Version, func() { c.deps.Observer.StateChanged(snap) })
}

func (c *Controller) stopTickerLocked() {
	c.timerGen++
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}
