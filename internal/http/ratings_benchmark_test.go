package httpserver

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func BenchmarkHandleSubmitRating(b *testing.B) {
	srv := buildTestServer(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		payload := []byte(`{"score":4}`)
		req := httptest.NewRequest(http.MethodPost, "/subjects/alice/ratings", bytes.NewReader(payload))
		req.Header.Set(callerHeader, fmt.Sprintf("bench-%d", i))
		req = attachParams(req, "subject", "alice")
		rec := httptest.NewRecorder()

		srv.handleSubmitRating(rec, req)
		if rec.Code != http.StatusCreated {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
