//go:build tools

// Pins code generators as module dependencies so `go generate` works on a
// fresh checkout.

package talktrace

import (
	_ "go.uber.org/mock/mockgen"
)
