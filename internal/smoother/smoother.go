package smoother

// Config tunes the smoother's global defaults (spec §4.8).
type Config struct {
	DefaultSensitivity      int
	MinHoldMs               int64
	MaxHoldMs               int64
	UseConfidenceWeighting  bool
	ConfidenceBoostThreshold int
	OnChange                ChangeFunc
}

// DefaultConfig returns the smoother's default tuning.
func DefaultConfig() Config {
	return Config{
		DefaultSensitivity:       DefaultSensitivity,
		MinHoldMs:                MinHoldMs,
		MaxHoldMs:                MaxHoldMs,
		UseConfidenceWeighting:   true,
		ConfidenceBoostThreshold: ConfidenceBoostThreshold,
	}
}

// CalcHoldTimeMs derives the base hold time from a sensitivity preset:
// higher sensitivity means a shorter hold (faster to declare vacancy).
func CalcHoldTimeMs(sensitivity int) int64 {
	return int64(100-sensitivity) * 50
}

// CalcEnterDelayMs derives the enter delay from a sensitivity preset.
func CalcEnterDelayMs(sensitivity int) int64 {
	return int64(100-sensitivity) * 5
}

type zoneState struct {
	SmoothedState
	sensitivity    int
	holdTimeMs     int64
	enterDelayMs   int64
	lastConfidence int
	timerStartMs   int64
	timerDurationMs int64
}

// Smoother holds per-zone debounce state across frames. Not safe for
// concurrent use.
type Smoother struct {
	Config Config

	zones  map[string]*zoneState
	order  []string // preserves first-seen zone order in Frame output

	FramesProcessed        int64
	StateChanges           int64
	HoldExtensions         int64
	FalseOccupancyPrevented int64
	FalseVacancyPrevented   int64
}

// New creates a Smoother with no zones configured yet; zones are added
// lazily as RawInput arrives, matching the teacher's lazy-registration
// pattern for per-source bookkeeping (internal/monitoring).
func New(cfg Config) *Smoother {
	return &Smoother{Config: cfg, zones: make(map[string]*zoneState)}
}

func (s *Smoother) zoneFor(id string, nowMs int64) *zoneState {
	if z, ok := s.zones[id]; ok {
		return z
	}
	z := &zoneState{
		SmoothedState: SmoothedState{ZoneID: id, State: Vacant, VacantSinceMs: nowMs},
		sensitivity:   s.Config.DefaultSensitivity,
	}
	z.holdTimeMs = CalcHoldTimeMs(z.sensitivity)
	z.enterDelayMs = CalcEnterDelayMs(z.sensitivity)
	s.zones[id] = z
	s.order = append(s.order, id)
	return z
}

// SetSensitivity sets a per-zone sensitivity override (0-100). The zone is
// created with default sensitivity if not yet seen.
func (s *Smoother) SetSensitivity(zoneID string, sensitivity int) error {
	if sensitivity < 0 || sensitivity > 100 {
		return errSensitivityRange
	}
	z := s.zoneFor(zoneID, 0)
	z.sensitivity = sensitivity
	z.holdTimeMs = CalcHoldTimeMs(sensitivity)
	z.enterDelayMs = CalcEnterDelayMs(sensitivity)
	return nil
}

// SetDefaultSensitivity updates the global default and every zone that has
// not been given its own override tracking is intentionally not kept here —
// matching the original's simpler global-overwrite semantics, every known
// zone is rewritten to the new sensitivity.
func (s *Smoother) SetDefaultSensitivity(sensitivity int) error {
	if sensitivity < 0 || sensitivity > 100 {
		return errSensitivityRange
	}
	s.Config.DefaultSensitivity = sensitivity
	for _, z := range s.zones {
		z.sensitivity = sensitivity
		z.holdTimeMs = CalcHoldTimeMs(sensitivity)
		z.enterDelayMs = CalcEnterDelayMs(sensitivity)
	}
	return nil
}

// calcEffectiveHold applies confidence weighting: above-threshold confidence
// extends the hold by 50%, capped at MaxHoldMs; confidence below 30 halves
// it, floored at MinHoldMs.
func (s *Smoother) calcEffectiveHold(z *zoneState) int64 {
	base := z.holdTimeMs
	if !s.Config.UseConfidenceWeighting {
		return base
	}
	if z.lastConfidence > s.Config.ConfidenceBoostThreshold {
		extended := base + base/2
		s.HoldExtensions++
		if extended > s.Config.MaxHoldMs {
			return s.Config.MaxHoldMs
		}
		return extended
	}
	if z.lastConfidence < LowConfidenceThreshold {
		reduced := base / 2
		if reduced < s.Config.MinHoldMs {
			return s.Config.MinHoldMs
		}
		return reduced
	}
	return base
}

// step advances one zone's state machine by one raw observation.
func (s *Smoother) step(z *zoneState, in RawInput) {
	z.RawOccupied = in.RawOccupied
	z.TargetCount = in.TargetCount
	z.lastConfidence = in.AvgConfidence

	prevSmoothed := z.Occupied
	prevState := z.State

	switch z.State {
	case Vacant:
		if in.RawOccupied {
			z.State = Entering
			z.timerStartMs = in.TimestampMs
			z.timerDurationMs = z.enterDelayMs
			if z.timerDurationMs <= 0 {
				z.State = Occupied
				z.OccupiedSinceMs = in.TimestampMs
				z.VacantSinceMs = 0
			}
		}
		z.Occupied = z.State == Occupied

	case Entering:
		if !in.RawOccupied {
			z.State = Vacant
			s.FalseOccupancyPrevented++
		} else if in.TimestampMs-z.timerStartMs >= z.timerDurationMs {
			z.State = Occupied
			z.OccupiedSinceMs = in.TimestampMs
			z.VacantSinceMs = 0
		}
		z.Occupied = z.State == Occupied

	case Occupied:
		if !in.RawOccupied {
			z.State = Holding
			z.timerStartMs = in.TimestampMs
			z.timerDurationMs = s.calcEffectiveHold(z)
			if z.timerDurationMs <= 0 {
				z.State = Vacant
				z.VacantSinceMs = in.TimestampMs
				z.OccupiedSinceMs = 0
			}
		}
		z.Occupied = z.State != Vacant

	case Holding:
		if in.RawOccupied {
			z.State = Occupied
			s.FalseVacancyPrevented++
		} else if in.TimestampMs-z.timerStartMs >= z.timerDurationMs {
			z.State = Vacant
			z.VacantSinceMs = in.TimestampMs
			z.OccupiedSinceMs = 0
			z.Occupied = false
		} else {
			z.Occupied = true
		}
	}

	if z.State != prevState {
		s.StateChanges++
	}
	if z.Occupied != prevSmoothed && s.Config.OnChange != nil {
		s.Config.OnChange(z.ZoneID, z.Occupied)
	}
}

// Process advances every zone named in inputs by one frame and returns the
// smoothed state of all zones known to the smoother (including ones not
// present in this particular input batch — absence is not itself a signal
// and is left to the caller to express as RawOccupied: false).
func (s *Smoother) Process(inputs []RawInput, nowMs int64) Frame {
	for _, in := range inputs {
		z := s.zoneFor(in.ZoneID, nowMs)
		s.step(z, in)
	}

	frame := Frame{TimestampMs: nowMs}
	for _, id := range s.order {
		frame.Zones = append(frame.Zones, s.zones[id].SmoothedState)
	}
	s.FramesProcessed++
	return frame
}

// ProcessBinary drives a single global zone from a raw boolean presence
// reading, for hardware variants that bypass tracking and zone evaluation
// entirely and feed the smoother directly off the presence radar.
func (s *Smoother) ProcessBinary(rawOccupied bool, nowMs int64) SmoothedState {
	z := s.zoneFor("global", nowMs)
	s.step(z, RawInput{ZoneID: "global", RawOccupied: rawOccupied, AvgConfidence: 100, TimestampMs: nowMs})
	s.FramesProcessed++
	return z.SmoothedState
}

// State returns the current smoothed state for a zone.
func (s *Smoother) State(zoneID string) (SmoothedState, bool) {
	z, ok := s.zones[zoneID]
	if !ok {
		return SmoothedState{}, false
	}
	return z.SmoothedState, true
}

// AnyOccupied reports whether at least one zone is currently smoothed-occupied.
func (s *Smoother) AnyOccupied() bool {
	for _, z := range s.zones {
		if z.Occupied {
			return true
		}
	}
	return false
}

// OccupiedCount returns the number of zones currently smoothed-occupied.
func (s *Smoother) OccupiedCount() int {
	n := 0
	for _, z := range s.zones {
		if z.Occupied {
			n++
		}
	}
	return n
}

// Reset returns every known zone to Vacant.
func (s *Smoother) Reset(nowMs int64) {
	for _, z := range s.zones {
		z.State = Vacant
		z.Occupied = false
		z.RawOccupied = false
		z.VacantSinceMs = nowMs
		z.OccupiedSinceMs = 0
	}
	s.FramesProcessed = 0
}
