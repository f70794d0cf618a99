package app

import (
	"os"
	"sync"
)

// InTestMode reports whether DESK_TEST_MODE=1 was set at first call. Test
// mode turns off rate limiting and makes cmd/desk exit before binding ports.
var InTestMode = sync.OnceValue(func() bool {
	return os.Getenv("DESK_TEST_MODE") == "1"
})
