package game

import "context"

// autoCaller is the cancellation handle for one session's auto-draw
// loop. The session owns it exclusively; every path that ends the
// session's active life must cancel it so no scheduled tick ever
// mutates a disposed session.
type autoCaller struct {
	cancel context.CancelFunc
}

// startAutoLocked launches the draw loop for s. Registry lock held.
func (r *Registry) startAutoLocked(s *Session) {
	ctx, cancel := context.WithCancel(context.Background())
	s.auto = &autoCaller{cancel: cancel}
	go r.autoLoop(ctx, s.Code)
}

// stopAutoLocked cancels a running loop, if any. Registry lock held.
func (r *Registry) stopAutoLocked(s *Session) {
	if s.auto != nil {
		s.auto.cancel()
		s.auto = nil
	}
}

// autoLoop draws one number per tick until the context is cancelled or
// the pool runs dry. Events are delivered to the sink outside the
// registry lock.
func (r *Registry) autoLoop(ctx context.Context, code string) {
	ticker := r.clock.NewTicker(r.cfg.DrawInterval, "autodraw", code)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ev, sink, keepGoing := r.autoTick(code)
			if ev != nil && sink != nil {
				sink.AutoDraw(*ev)
			}
			if !keepGoing {
				return
			}
		}
	}
}

// autoTick performs one timer-driven draw. It re-checks that the
// session still exists, is active and still owns a running loop, since
// a cancellation can race a tick that was already in flight.
func (r *Registry) autoTick(code string) (*AutoDrawEvent, Sink, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.sessions[code]
	if s == nil || s.auto == nil || !s.active {
		return nil, nil, false
	}

	n, err := r.drawer.Draw(s.calledSet)
	if err != nil {
		// Pool exhausted: the loop ends and players get a finished
		// notification instead of a draw.
		r.stopAutoLocked(s)
		r.logger.Info("auto draw finished", "code", code, "called", len(s.called))
		return &AutoDrawEvent{Code: code, Finished: true, Called: s.calledNumbers()}, r.sink, false
	}

	s.markCalled(n)
	r.logger.Debug("auto draw tick", "code", code, "number", n, "total", len(s.called))
	ev := &AutoDrawEvent{
		Code:   code,
		Draw:   &DrawResult{Code: code, Number: n, Called: s.calledNumbers()},
		Called: s.calledNumbers(),
	}
	return ev, r.sink, true
}
