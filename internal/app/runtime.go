package app

import (
	"log"
	"mime"
	"os"
	"strconv"
	"sync"
)

// TestModeEnv is set by the testing package; binaries exit early when it is true.
const TestModeEnv = "RESTO_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	on, _ := strconv.ParseBool(os.Getenv(TestModeEnv))
	return on
})

// InTestMode reports whether binaries should skip runtime side effects.
// The environment is read once per process.
func InTestMode() bool {
	return testMode()
}

// Slim images ship without /etc/mime.types and http.FileServer would then
// serve board.js as text/plain, which the CSP nosniff header rejects.
func init() {
	for ext, typ := range map[string]string{
		".css": "text/css; charset=utf-8",
		".js":  "text/javascript; charset=utf-8",
		".svg": "image/svg+xml",
	} {
		if mime.TypeByExtension(ext) != "" {
			continue
		}
		if err := mime.AddExtensionType(ext, typ); err != nil {
			log.Printf("app: register MIME type for %s: %v", ext, err)
		}
	}
}
