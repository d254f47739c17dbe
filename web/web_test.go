package web

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/NYTimes/gziphandler"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/scheduledevents"
	"github.com/lurelin/medli/common/testutils"
)

var servicesUp = false

func init() {
	common.InitTest()

	if common.PQ == nil || common.RedisPool == nil {
		return
	}

	err := testutils.InitTables(common.PQ, []string{"scheduled_events"}, scheduledevents.DBSchemas)
	if err == nil {
		servicesUp = true
	}
}

func TestHealthz(t *testing.T) {
	if !servicesUp {
		t.Skip("postgres or redis not available, skipping.")
		return
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/healthz", nil)
	setupEngine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("healthz returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp healthzResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal("failed decoding response:", err)
	}

	if !resp.OK || resp.Redis != "ok" || resp.Postgres != "ok" {
		t.Errorf("unexpected health report: %+v", resp)
	}
}

func TestStatus(t *testing.T) {
	if !servicesUp {
		t.Skip("postgres or redis not available, skipping.")
		return
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/status", nil)
	setupEngine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status returned %d: %s", rec.Code, rec.Body.String())
	}

	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal("failed decoding response:", err)
	}

	if resp.Version != common.VERSION {
		t.Errorf("got version %q, wanted %q", resp.Version, common.VERSION)
	}

	if resp.Goroutines < 1 {
		t.Error("goroutine count should never be zero")
	}

	if !strings.HasPrefix(resp.GoVersion, "go") {
		t.Errorf("odd go version: %q", resp.GoVersion)
	}

	if resp.Uptime == "" {
		t.Error("uptime missing")
	}
}

// TestStatusGzipChain runs a request through the same wrapped handler Run
// serves. Responses under the compressor's minimum size pass through plain,
// either way the body has to decode.
func TestStatusGzipChain(t *testing.T) {
	if !servicesUp {
		t.Skip("postgres or redis not available, skipping.")
		return
	}

	handler := gziphandler.GzipHandler(setupEngine())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/status", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status returned %d", rec.Code)
	}

	body := rec.Body.Bytes()
	if rec.Header().Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(rec.Body)
		if err != nil {
			t.Fatal("failed opening gzip reader:", err)
		}
		defer gz.Close()

		body, err = io.ReadAll(gz)
		if err != nil {
			t.Fatal("failed decompressing body:", err)
		}
	}

	var resp statusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatal("failed decoding response:", err)
	}

	if resp.Version != common.VERSION {
		t.Errorf("got version %q, wanted %q", resp.Version, common.VERSION)
	}
}
