package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func FuzzDecodeAddressParam(f *testing.F) {
	seeds := []string{
		"alice",
		"0x00c0ffee",
		"0x0000000000000000000000000000000000000000",
		"",
		"  bob  ",
		"%zz",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		req := httptest.NewRequest(http.MethodGet, "/subjects/x/aggregate", nil)
		req = attachParams(req, "subject", raw)

		addr, err := decodeAddressParam(req, "subject")
		if err != nil {
			return
		}
		if addr.IsZero() {
			t.Fatalf("decoded address %q is null", raw)
		}
	})
}
