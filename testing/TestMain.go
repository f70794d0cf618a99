// Package testing puts the desk into test mode. Test packages import it for
// its side effect, before anything reads the environment.
package testing

import "os"

var defaults = map[string]string{
	"SESSION_SECRET": "test-session-secret",
	"CSRF_SECRET":    "test-csrf-secret",
}

func init() {
	_ = os.Setenv("DESK_TEST_MODE", "1")
	for key, value := range defaults {
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
}
