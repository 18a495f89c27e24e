package app

import (
	"os"
	"strings"
	"sync"
)

const testModeEnv = "COMMESSE_TEST_MODE"

// InTestMode reports whether COMMESSE_TEST_MODE is set, in which case the
// binaries return before touching Postgres, Redis or S3. The flag is read once.
var InTestMode = sync.OnceValue(func() bool {
	switch strings.ToLower(os.Getenv(testModeEnv)) {
	case "1", "true", "yes":
		return true
	}
	return false
})
