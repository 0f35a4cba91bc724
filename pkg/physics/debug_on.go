//go:build physicsdebug

package physics

import "fmt"

const debugChecks = true

func invariant(ok bool, format string, args ...any) {
	if !ok {
		panic(fmt.Sprintf("physics: "+format, args...))
	}
}
