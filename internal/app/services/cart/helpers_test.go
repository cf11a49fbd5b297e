package cart

import (
	"testing"
	"time"

	"github.com/R3E-Network/storefront/internal/app/httpapi"
)

func waitForRequest(t *testing.T, srv *httpapi.Server, route string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(srv.RequestsTo(route)) > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", route)
}
