//go:build sandboxassert

package assert

// Enabled reports whether this is a verification build.
const Enabled = true
