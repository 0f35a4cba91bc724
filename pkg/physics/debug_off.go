//go:build !physicsdebug

package physics

const debugChecks = false

func invariant(bool, string, ...any) {}
