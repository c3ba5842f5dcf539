package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diemthi/thpt-score-backend/internal/config"
	"github.com/diemthi/thpt-score-backend/internal/handler"
	"github.com/diemthi/thpt-score-backend/internal/response"
)

type liveCache struct{}

func (liveCache) IsLive() bool { return true }

func testRouter() http.Handler {
	cfg := &config.Config{
		GinMode:            "test",
		RateLimitPerMinute: 100,
	}
	handlers := &Handlers{
		Student: handler.NewStudentHandler(nil),
		Subject: handler.NewSubjectHandler(nil),
		System:  handler.NewSystemHandler(liveCache{}),
	}
	return SetupRouter(handlers, cfg)
}

func TestUnmatchedStudentRouteUsesEnvelope(t *testing.T) {
	r := testRouter()

	// Neither a score lookup nor a group ranking; must still answer with
	// the standard envelope, not a bare status.
	for _, path := range []string{"/students/foo/bar", "/students/top/not-a-group"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status %d, want 404", path, w.Code)
			continue
		}

		var body struct {
			Error *struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
			Metadata struct {
				RequestID string `json:"request_id"`
			} `json:"metadata"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Errorf("%s: body is not an envelope: %v (%s)", path, err, w.Body.String())
			continue
		}
		if body.Error == nil || body.Error.Code != string(response.ErrNotFound) {
			t.Errorf("%s: error = %+v, want code %s", path, body.Error, response.ErrNotFound)
		}
		if body.Metadata.RequestID == "" {
			t.Errorf("%s: metadata.request_id missing", path)
		}
	}
}
