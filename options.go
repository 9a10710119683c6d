package cathode8

// Option configures a Core at construction time, generalizing the teacher's
// functional-options pattern (nes/nes_options.go's NesOption) — the core's
// only "configuration" surface is the audio sample rate named in spec.md
// §6, since everything else is either host-supplied (the ROM bytes) or
// runtime state (controller/zapper).
type Option func(*options)

type options struct {
	sampleRate int
}

func defaultOptions() options {
	return options{sampleRate: 48000}
}

// WithAudioSampleRate sets the APU resampler's initial target host rate;
// spec.md §6 floors this at 8000 Hz, enforced by apu.SetSampleRate.
func WithAudioSampleRate(hz int) Option {
	return func(o *options) { o.sampleRate = hz }
}
