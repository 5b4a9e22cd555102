package tracker

import "math"

// predict applies the constant-velocity Kalman prediction step in place,
// unrolling the 4x4 matrix arithmetic directly rather than pulling in a
// general linear-algebra library (spec §9): F = [[1,0,dt,0],[0,1,0,dt],
// [0,0,1,0],[0,0,0,1]], P' = F P F^T + Q.
func (c *Config) predict(tr *Track, dt float64) {
	tr.X += tr.VX * dt
	tr.Y += tr.VY * dt

	P := tr.P

	// FP = F * P
	var FP [16]float64
	for j := 0; j < 4; j++ {
		FP[0*4+j] = P[0*4+j] + dt*P[2*4+j]
		FP[1*4+j] = P[1*4+j] + dt*P[3*4+j]
		FP[2*4+j] = P[2*4+j]
		FP[3*4+j] = P[3*4+j]
	}

	// P' = FP * F^T
	for i := 0; i < 4; i++ {
		tr.P[i*4+0] = FP[i*4+0] + dt*FP[i*4+2]
		tr.P[i*4+1] = FP[i*4+1] + dt*FP[i*4+3]
		tr.P[i*4+2] = FP[i*4+2]
		tr.P[i*4+3] = FP[i*4+3]
	}

	tr.P[0*4+0] += c.ProcessNoisePos * c.ProcessNoisePos
	tr.P[1*4+1] += c.ProcessNoisePos * c.ProcessNoisePos
	tr.P[2*4+2] += c.ProcessNoiseVel * c.ProcessNoiseVel
	tr.P[3*4+3] += c.ProcessNoiseVel * c.ProcessNoiseVel
}

// innovationCovariance returns S = H P H^T + R (2x2) for the position-only
// measurement model H = [[1,0,0,0],[0,1,0,0]].
func (c *Config) innovationCovariance(tr *Track) (s00, s01, s10, s11 float64) {
	r2 := c.MeasurementNoise * c.MeasurementNoise
	s00 = tr.P[0*4+0] + r2
	s01 = tr.P[0*4+1]
	s10 = tr.P[1*4+0]
	s11 = tr.P[1*4+1] + r2
	return
}

// gateDistanceSquared returns the squared Euclidean distance from the
// track's predicted position to x,y. Gating uses plain Euclidean distance
// per spec §4.6, not a Mahalanobis metric.
func gateDistanceSquared(tr *Track, x, y float64) float64 {
	dx := x - tr.X
	dy := y - tr.Y
	return dx*dx + dy*dy
}

// gateMm returns the speed-scaled association gate radius for a track.
func (c *Config) gateMm(tr *Track) float64 {
	gate := c.BaseGateMm + tr.speedMps()*c.GateSpeedGain
	if gate > c.MaxGateMm {
		gate = c.MaxGateMm
	}
	return gate
}

// update applies the Kalman measurement update in place and reports whether
// the filter diverged and was reinitialized (spec §4.6 divergence guard).
func (c *Config) update(tr *Track, d Detection) (reset bool) {
	s00, s01, s10, s11 := c.innovationCovariance(tr)
	det := s00*s11 - s01*s10

	const minDet = 1e-6
	if det < minDet {
		c.reinit(tr, d)
		return true
	}

	invS00 := s11 / det
	invS01 := -s01 / det
	invS10 := -s10 / det
	invS11 := s00 / det

	yX := d.X - tr.X
	yY := d.Y - tr.Y

	// K = P H^T S^-1, a 4x2 matrix.
	var K [8]float64
	for i := 0; i < 4; i++ {
		K[i*2+0] = tr.P[i*4+0]*invS00 + tr.P[i*4+1]*invS10
		K[i*2+1] = tr.P[i*4+0]*invS01 + tr.P[i*4+1]*invS11
	}

	tr.X += K[0*2+0]*yX + K[0*2+1]*yY
	tr.Y += K[1*2+0]*yX + K[1*2+1]*yY
	tr.VX += K[2*2+0]*yX + K[2*2+1]*yY
	tr.VY += K[3*2+0]*yX + K[3*2+1]*yY

	// P' = (I - K H) P
	var IminusKH [16]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			identity := 0.0
			if i == j {
				identity = 1
			}
			var kh float64
			switch j {
			case 0:
				kh = K[i*2+0]
			case 1:
				kh = K[i*2+1]
			}
			IminusKH[i*4+j] = identity - kh
		}
	}

	var newP [16]float64
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += IminusKH[i*4+k] * tr.P[k*4+j]
			}
			newP[i*4+j] = sum
		}
	}
	tr.P = newP

	if c.diverged(tr) {
		c.reinit(tr, d)
		return true
	}
	return false
}

// diverged reports whether any diagonal covariance term or state component
// has left the bounds specified in §4.6: NaN/Inf, P_ii > 1e6, or
// P_ii < 1e-6.
func (c *Config) diverged(tr *Track) bool {
	components := []float64{tr.X, tr.Y, tr.VX, tr.VY}
	for _, v := range components {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	for i := 0; i < 4; i++ {
		pii := tr.P[i*4+i]
		if math.IsNaN(pii) || math.IsInf(pii, 0) {
			return true
		}
		if pii > 1e6 || pii < 1e-6 {
			return true
		}
	}
	return false
}

// reinit resets the filter at the latest measurement, as if the track had
// just spawned there, preserving identity/lifecycle/counters.
func (c *Config) reinit(tr *Track, d Detection) {
	tr.X = d.X
	tr.Y = d.Y
	tr.VX = 0
	tr.VY = 0
	tr.P = initialCovariance()
}
