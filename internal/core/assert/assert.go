// Package assert holds the verification-build switch.
//
// Builds tagged with sandboxassert turn contract violations into panics;
// regular builds reject the offending operation and log it instead.
package assert

import "fmt"

// That panics with the formatted message when assertions are enabled and cond is false.
func That(cond bool, format string, args ...any) {
	if Enabled && !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}

// Fail panics with the formatted message when assertions are enabled.
func Fail(format string, args ...any) {
	That(false, format, args...)
}
