package apu

import "math"

// Two cascaded high-pass filters (90 Hz, 440 Hz) followed by a 14 kHz
// low-pass filter, the same three-stage chain real NES output passes
// through before a TV speaker — spec.md §4.4 "Mixer". Coefficients are
// recomputed whenever the host sample rate changes.

func highPassAlpha(cutoffHz, dt float64) float64 {
	rc := 1.0 / (2.0 * math.Pi * cutoffHz)
	return rc / (rc + dt)
}

func lowPassAlpha(cutoffHz, dt float64) float64 {
	rc := 1.0 / (2.0 * math.Pi * cutoffHz)
	return dt / (rc + dt)
}

func (a *APU) updateFilterCoeffs() {
	dt := 1.0 / float64(a.sampleRate)
	a.hp90A = float32(highPassAlpha(90.0, dt))
	a.hp440A = float32(highPassAlpha(440.0, dt))
	a.lp14kA = float32(lowPassAlpha(14000.0, dt))
}

func (a *APU) applyOutputFilters(sample float32) float32 {
	hp90 := a.hp90A * (a.hp90PrevOut + sample - a.hp90PrevIn)
	a.hp90PrevIn = sample
	a.hp90PrevOut = hp90
	sample = hp90

	hp440 := a.hp440A * (a.hp440PrevOut + sample - a.hp440PrevIn)
	a.hp440PrevIn = sample
	a.hp440PrevOut = hp440
	sample = hp440

	a.lp14kPrevOut += a.lp14kA * (sample - a.lp14kPrevOut)
	out := a.lp14kPrevOut
	if out > 1 {
		return 1
	}
	if out < -1 {
		return -1
	}
	return out
}
