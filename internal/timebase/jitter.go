package timebase

// JitterMeter tracks frame-arrival statistics for one radar stream: the
// expected vs. actual inter-frame interval, accumulated jitter, and a
// missed-frame counter derived from large gaps.
type JitterMeter struct {
	ExpectedIntervalMs int64
	ActualIntervalMs   int64
	MaxJitterMs        int64
	MissedFrames       int64
	TotalFrames        int64

	lastFrameMs int64
	haveLast    bool
}

// NewJitterMeter creates a meter for a stream with the given expected
// inter-frame interval (e.g. ~30ms for a 33Hz tracking radar).
func NewJitterMeter(expectedIntervalMs int64) *JitterMeter {
	return &JitterMeter{ExpectedIntervalMs: expectedIntervalMs}
}

// FrameReceived records a frame's arrival time in uptime milliseconds and
// updates interval/jitter/missed-frame statistics.
func (j *JitterMeter) FrameReceived(nowMs int64) {
	j.TotalFrames++

	if j.haveLast {
		interval := nowMs - j.lastFrameMs
		j.ActualIntervalMs = interval

		deviation := interval - j.ExpectedIntervalMs
		if deviation < 0 {
			deviation = -deviation
		}
		if deviation > j.MaxJitterMs {
			j.MaxJitterMs = deviation
		}

		if j.ExpectedIntervalMs > 0 && interval > 2*j.ExpectedIntervalMs {
			missed := interval/j.ExpectedIntervalMs - 1
			if missed > 0 {
				j.MissedFrames += missed
			}
		}
	}

	j.lastFrameMs = nowMs
	j.haveLast = true
}

// FrameLate reports whether more than twice the expected interval has
// elapsed since the last recorded frame.
func (j *JitterMeter) FrameLate(nowMs int64) bool {
	if !j.haveLast || j.ExpectedIntervalMs <= 0 {
		return false
	}
	return nowMs-j.lastFrameMs > 2*j.ExpectedIntervalMs
}

// LastFrameMs returns the uptime millisecond timestamp of the most recent
// recorded frame, and whether any frame has been recorded yet.
func (j *JitterMeter) LastFrameMs() (int64, bool) {
	return j.lastFrameMs, j.haveLast
}
