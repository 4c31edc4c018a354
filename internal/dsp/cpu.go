package dsp

import "sync"

// SIMDLevel names the vector capability a kernel set is tuned for.
type SIMDLevel int

const (
	SIMDNone SIMDLevel = iota
	SIMDSSE2
	SIMDAVX2
	SIMDNEON
)

func (s SIMDLevel) String() string {
	switch s {
	case SIMDNone:
		return "none"
	case SIMDSSE2:
		return "sse2"
	case SIMDAVX2:
		return "avx2"
	case SIMDNEON:
		return "neon"
	}
	return "unknown"
}

// Features describes the CPU capabilities relevant to kernel selection.
type Features struct {
	HasSSE2 bool
	HasAVX2 bool
	HasNEON bool

	// ForceGeneric restricts selection to the portable kernels.
	ForceGeneric bool

	Architecture string
}

var (
	detected   Features
	detectOnce sync.Once
	detectMu   sync.Mutex
	forced     *Features
	forcedMu   sync.RWMutex
)

// DetectFeatures returns the capabilities of the running CPU. Detection
// runs once and is cached.
func DetectFeatures() Features {
	forcedMu.RLock()
	f := forced
	forcedMu.RUnlock()
	if f != nil {
		return *f
	}

	detectMu.Lock()
	detectOnce.Do(func() { detected = detectFeatures() })
	d := detected
	detectMu.Unlock()
	return d
}

// SetForcedFeatures overrides detection. Tests use it to pin a kernel set.
func SetForcedFeatures(f Features) {
	forcedMu.Lock()
	defer forcedMu.Unlock()
	forced = &f
}

// ResetDetection drops forced features and the detection cache.
func ResetDetection() {
	forcedMu.Lock()
	forced = nil
	forcedMu.Unlock()

	detectMu.Lock()
	detectOnce = sync.Once{}
	detected = Features{}
	detectMu.Unlock()
}

// Supports reports whether f can run kernels built for level.
func Supports(f Features, level SIMDLevel) bool {
	if f.ForceGeneric {
		return level == SIMDNone
	}
	switch level {
	case SIMDNone:
		return true
	case SIMDSSE2:
		return f.HasSSE2
	case SIMDAVX2:
		return f.HasAVX2
	case SIMDNEON:
		return f.HasNEON
	}
	return false
}
