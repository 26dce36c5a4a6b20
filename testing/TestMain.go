// Package testing puts binaries and packages into test mode when imported
// for side effects: cmd/resto and cmd/worker return before dialing
// Postgres or Redis, and outbound integrations point nowhere.
package testing

import (
	"os"
	stdtesting "testing"
)

// STATUS_WEBHOOK_URL is blanked so the production n8n hook never sees
// test traffic.
var defaults = map[string]string{
	"RESTO_TEST_MODE":    "1",
	"AFIP_BASE_URL":      "http://127.0.0.1:0",
	"STATUS_WEBHOOK_URL": "",
	"WEBHOOK_ASYNC":      "false",
}

func init() {
	for key, value := range defaults {
		if key == "RESTO_TEST_MODE" {
			_ = os.Setenv(key, value)
			continue
		}
		if _, ok := os.LookupEnv(key); !ok {
			_ = os.Setenv(key, value)
		}
	}
}

func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
