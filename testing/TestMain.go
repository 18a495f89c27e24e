// Package testing switches the commesse binaries into test mode for any test
// package that imports it for side effects.
package testing

import (
	"os"
	stdtesting "testing"
)

func init() {
	setDefault("COMMESSE_TEST_MODE", "1")
	setDefault("JWT_SECRET", "test-secret")
	setDefault("GOTENBERG_URL", "http://127.0.0.1:0")
}

func setDefault(key, value string) {
	if os.Getenv(key) == "" {
		_ = os.Setenv(key, value)
	}
}

// TestMain runs m with the test-mode environment in place.
func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
