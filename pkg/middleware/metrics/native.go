package metrics

import "time"

// ObserveNativeCall records one callback invocation. op is "load" or
// "unload"; result is native.Result.String().
func ObserveNativeCall(op, result string, took time.Duration) {
	nativeCalls.WithLabelValues(op, result).Inc()
	nativeCallSeconds.WithLabelValues(op).Observe(took.Seconds())
}

// AddLoadedApps moves the registry gauge by delta.
func AddLoadedApps(delta int) { loadedApps.Add(float64(delta)) }
