// Package exitcode defines the exit codes reported to the invoking
// software-distribution system. Codes are partitioned into non-overlapping
// bands so callers that branch on numeric ranges keep working: the wrapping
// deployment framework owns 60000-68999, this tool owns 69000-69999, and
// 70000 and above is reserved for site-local extensions.
package exitcode

const (
	// Success indicates the run completed and all expected remediation ran.
	Success = 0

	// PreconditionNotMet indicates the pre-flight guard aborted the run
	// because the replacement application was not detected and no override
	// was given. No remediation is performed on this path.
	PreconditionNotMet = 445

	// FrameworkBandStart and FrameworkBandEnd bound the band reserved for
	// the wrapping deployment framework.
	FrameworkBandStart = 60000
	FrameworkBandEnd   = 68999

	// CustomBandStart and CustomBandEnd bound the band owned by this tool.
	CustomBandStart = 69000
	CustomBandEnd   = 69999

	// FatalError is returned when an unexpected failure aborts the run
	// mid-flight. It is the only code in the custom band emitted today.
	FatalError = 69001

	// ExtensionBandStart marks the beginning of the site-local band.
	ExtensionBandStart = 70000
)

// InFrameworkBand reports whether code belongs to the deployment framework.
func InFrameworkBand(code int) bool {
	return code >= FrameworkBandStart && code <= FrameworkBandEnd
}

// InCustomBand reports whether code belongs to this tool's band.
func InCustomBand(code int) bool {
	return code >= CustomBandStart && code <= CustomBandEnd
}

// InExtensionBand reports whether code belongs to the site-local band.
func InExtensionBand(code int) bool {
	return code >= ExtensionBandStart
}
