// Package guard switches binaries into test mode. Import it for side effects
// from tests that call a main function.
package guard

import (
	"os"
	"sync"
)

// TestModeEnv mirrors the variable read by app.InTestMode.
const TestModeEnv = "LEASE_TEST_MODE"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv(TestModeEnv) == "" {
			_ = os.Setenv(TestModeEnv, "1")
		}
	})
}
