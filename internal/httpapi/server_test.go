package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/vidranker/internal/ads"
	"github.com/antoniostano/vidranker/internal/config"
	"github.com/antoniostano/vidranker/internal/history"
	"github.com/antoniostano/vidranker/internal/imagegen"
	"github.com/antoniostano/vidranker/internal/observability"
	"github.com/antoniostano/vidranker/internal/protocol"
	"github.com/antoniostano/vidranker/internal/seo"
	"github.com/antoniostano/vidranker/internal/studio"
)

type testEnv struct {
	ts    *httptest.Server
	ads   *ads.Manager
	store *history.Store
}

func newTestEnv(t *testing.T, name string, renderer imagegen.Renderer) *testEnv {
	t.Helper()
	logger := observability.NullLogger()
	metrics := observability.NewMetrics(fmt.Sprintf("test_httpapi_%s_%d", name, time.Now().UnixNano()))

	store := history.NewStore(history.NewInMemoryBackend(), history.Options{Logger: logger, Metrics: metrics})
	chain := imagegen.NewChain(nil, renderer, imagegen.Options{Logger: logger, Metrics: metrics})
	st := studio.New(seo.NewGenerator(nil, seo.Options{Logger: logger}), chain, store, studio.Options{Logger: logger, Metrics: metrics})

	bridge := ads.NewLoggingBridge(logger)
	manager := ads.NewManager(
		ads.NewAdapter(ads.Placement{Network: ads.NetworkAdMob}, bridge, ads.Options{Logger: logger, Metrics: metrics}),
		ads.NewAdapter(ads.Placement{Network: ads.NetworkMeta}, nil, ads.Options{Logger: logger, Metrics: metrics}),
	)
	_ = manager.Initialize(context.Background())

	cfg := config.Config{HistoryLimit: history.DefaultLimit, InterstitialCooldown: 30 * time.Second}
	srv := New(cfg, st, manager, metrics)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, ads: manager, store: store}
}

func canvasRenderer(t *testing.T) imagegen.Renderer {
	t.Helper()
	r, err := imagegen.NewCanvasRenderer()
	if err != nil {
		t.Fatalf("NewCanvasRenderer() error = %v", err)
	}
	return r
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	res, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	return res
}

func decodeBody(t *testing.T, res *http.Response, out any) {
	t.Helper()
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestGenerateSEOAndListHistory(t *testing.T) {
	env := newTestEnv(t, "seo", canvasRenderer(t))

	res := postJSON(t, env.ts.URL+"/v1/seo", map[string]string{"topic": "cooking pasta"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("POST /v1/seo status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	var out studio.SEOOutcome
	decodeBody(t, res, &out)
	if out.Record.Title != "SEO: cooking pasta" || out.Result.Source != seo.SourceTemplate {
		t.Fatalf("outcome = %+v, want saved template result", out)
	}

	listRes, err := http.Get(env.ts.URL + "/v1/history?kind=seo&q=pasta")
	if err != nil {
		t.Fatalf("GET /v1/history error = %v", err)
	}
	var list historyListResponse
	decodeBody(t, listRes, &list)
	if list.Count != 1 || list.Records[0].ID != out.Record.ID {
		t.Fatalf("history = %+v, want the SEO record", list)
	}
}

func TestGenerateSEORejectsBlankTopic(t *testing.T) {
	env := newTestEnv(t, "seo_blank", canvasRenderer(t))

	res := postJSON(t, env.ts.URL+"/v1/seo", map[string]string{"topic": "  "})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
	var body errorResponse
	decodeBody(t, res, &body)
	if body.Code != "missing_topic" {
		t.Fatalf("code = %q, want missing_topic", body.Code)
	}
}

func TestGenerateThumbnailFallsBackToCanvas(t *testing.T) {
	env := newTestEnv(t, "thumb", canvasRenderer(t))

	res := postJSON(t, env.ts.URL+"/v1/thumbnails", map[string]string{"prompt": "cat surfing", "style": "cartoon"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	var out studio.ThumbnailOutcome
	decodeBody(t, res, &out)
	if !out.Result.Success || out.Result.Method != imagegen.MethodCanvas {
		t.Fatalf("result = %+v, want canvas success", out.Result)
	}
	if !strings.HasPrefix(out.Result.ImageReference, "data:image/jpeg;base64,") {
		t.Fatalf("image reference is not a jpeg data url")
	}
	if out.Record == nil || out.Record.Thumbnail.Style != "cartoon" {
		t.Fatalf("record = %+v, want saved cartoon thumbnail", out.Record)
	}
	if len(out.Statuses) < 2 {
		t.Fatalf("statuses = %q, want progress messages", out.Statuses)
	}
}

func TestGenerateThumbnailTotalFailure(t *testing.T) {
	env := newTestEnv(t, "thumb_fail", nil)

	res := postJSON(t, env.ts.URL+"/v1/thumbnails", map[string]string{"prompt": "cat"})
	if res.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadGateway)
	}
	var body thumbnailFailureResponse
	decodeBody(t, res, &body)
	if body.Code != "generation_failed" || body.Error != "all generation methods failed" {
		t.Fatalf("body = %+v", body)
	}
	if body.Result.Success || body.Result.ErrorDetail != "all generation methods failed" {
		t.Fatalf("result = %+v, want failed chain result", body.Result)
	}
	if len(body.Statuses) < 2 {
		t.Fatalf("statuses = %q, want the progress log of the failed run", body.Statuses)
	}
	if len(env.store.List(context.Background())) != 0 {
		t.Fatalf("failed generation should not be saved")
	}
}

func TestDeleteAndClearHistory(t *testing.T) {
	env := newTestEnv(t, "history", canvasRenderer(t))
	ctx := context.Background()
	a := env.store.Save(ctx, history.Draft{Kind: history.KindSEO, Title: "SEO: a", SEO: &history.SEOPayload{}})
	env.store.Save(ctx, history.Draft{Kind: history.KindSEO, Title: "SEO: b", SEO: &history.SEOPayload{}})

	del := func(path string) int {
		req, _ := http.NewRequest(http.MethodDelete, env.ts.URL+path, nil)
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("DELETE %s error = %v", path, err)
		}
		res.Body.Close()
		return res.StatusCode
	}

	getRes, err := http.Get(env.ts.URL + "/v1/history/" + a.ID)
	if err != nil {
		t.Fatalf("GET record error = %v", err)
	}
	var got history.Record
	decodeBody(t, getRes, &got)
	if got.ID != a.ID || got.Title != "SEO: a" {
		t.Fatalf("GET record = %+v, want %+v", got, a)
	}

	if got := del("/v1/history/" + a.ID); got != http.StatusNoContent {
		t.Fatalf("DELETE record status = %d, want 204", got)
	}
	if got := del("/v1/history/" + a.ID); got != http.StatusNotFound {
		t.Fatalf("DELETE missing record status = %d, want 404", got)
	}

	missing, err := http.Get(env.ts.URL + "/v1/history/" + a.ID)
	if err != nil {
		t.Fatalf("GET deleted record error = %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("GET deleted record status = %d, want 404", missing.StatusCode)
	}

	statsRes, err := http.Get(env.ts.URL + "/v1/history/stats")
	if err != nil {
		t.Fatalf("GET stats error = %v", err)
	}
	var stats history.Stats
	decodeBody(t, statsRes, &stats)
	if stats.Total != 1 || stats.SEO != 1 {
		t.Fatalf("stats = %+v, want one SEO record", stats)
	}

	if got := del("/v1/history"); got != http.StatusNoContent {
		t.Fatalf("DELETE history status = %d, want 204", got)
	}
	if n := len(env.store.List(ctx)); n != 0 {
		t.Fatalf("records after clear = %d, want 0", n)
	}
}

func TestListHistoryRejectsUnknownKind(t *testing.T) {
	env := newTestEnv(t, "history_kind", canvasRenderer(t))
	res, err := http.Get(env.ts.URL + "/v1/history?kind=video")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", res.StatusCode)
	}
}

func TestAdRoutes(t *testing.T) {
	env := newTestEnv(t, "ads", canvasRenderer(t))

	res, err := http.Get(env.ts.URL + "/v1/ads")
	if err != nil {
		t.Fatalf("GET /v1/ads error = %v", err)
	}
	var status struct {
		Enabled  bool         `json:"enabled"`
		Networks []ads.Status `json:"networks"`
	}
	decodeBody(t, res, &status)
	if !status.Enabled || len(status.Networks) != 2 {
		t.Fatalf("status = %+v, want two networks", status)
	}
	if status.Networks[0].State != ads.StateReady || status.Networks[1].State != ads.StateFailed {
		t.Fatalf("states = %q/%q, want ready/failed", status.Networks[0].State, status.Networks[1].State)
	}

	cases := []struct {
		network string
		want    int
	}{
		{"admob", http.StatusOK},
		{"admob", http.StatusTooManyRequests},
		{"meta", http.StatusConflict},
		{"unity", http.StatusNotFound},
	}
	for _, tc := range cases {
		res := postJSON(t, env.ts.URL+"/v1/ads/"+tc.network+"/interstitial", nil)
		res.Body.Close()
		if res.StatusCode != tc.want {
			t.Fatalf("POST interstitial %s status = %d, want %d", tc.network, res.StatusCode, tc.want)
		}
	}
}

func TestOnboardingStatus(t *testing.T) {
	env := newTestEnv(t, "onboarding", canvasRenderer(t))

	res, err := http.Get(env.ts.URL + "/v1/onboarding/status")
	if err != nil {
		t.Fatalf("GET /v1/onboarding/status error = %v", err)
	}
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	var payload onboardingStatusResponse
	decodeBody(t, res, &payload)
	if payload.HistoryMode != "in-memory" {
		t.Fatalf("history_mode = %q, want in-memory", payload.HistoryMode)
	}
	ids := map[string]string{}
	for _, c := range payload.Checks {
		ids[c.ID] = c.Status
	}
	if ids["seo_key"] != "warn" || ids["image_canvas"] != "ok" || ids["ads_meta"] != "error" {
		t.Fatalf("checks = %+v", payload.Checks)
	}
}

func TestPerfStagesAfterGeneration(t *testing.T) {
	env := newTestEnv(t, "perf", canvasRenderer(t))
	res := postJSON(t, env.ts.URL+"/v1/thumbnails", map[string]string{"prompt": "cat"})
	res.Body.Close()

	perfRes, err := http.Get(env.ts.URL + "/v1/perf/stages")
	if err != nil {
		t.Fatalf("GET /v1/perf/stages error = %v", err)
	}
	var snap observability.StageSnapshot
	decodeBody(t, perfRes, &snap)
	found := false
	for _, st := range snap.Stages {
		if st.Stage == imagegen.MethodCanvas && st.Attempts == 1 && st.Outcomes["success"] == 1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("stages = %+v, want one successful canvas attempt", snap.Stages)
	}
}

func TestThumbnailWebSocketStreamsStatus(t *testing.T) {
	env := newTestEnv(t, "ws", canvasRenderer(t))
	wsURL := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/v1/thumbnails/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": "wat"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	var errEvent protocol.ErrorEvent
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&errEvent); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if errEvent.Type != protocol.TypeErrorEvent || errEvent.Code != "invalid_client_message" {
		t.Fatalf("first message = %+v, want invalid_client_message", errEvent)
	}

	req := protocol.ThumbnailRequest{Type: protocol.TypeThumbnailRequest, RequestID: "r1", Prompt: "cat surfing", Style: "cinematic"}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	statuses := 0
	for {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() error = %v", err)
		}
		var head protocol.Envelope
		if err := json.Unmarshal(data, &head); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		if head.Type == protocol.TypeGenerationStatus {
			var st protocol.GenerationStatus
			_ = json.Unmarshal(data, &st)
			statuses++
			if st.RequestID != "r1" || st.Seq != statuses {
				t.Fatalf("status = %+v, want request r1 seq %d", st, statuses)
			}
			continue
		}
		if head.Type != protocol.TypeGenerationResult {
			t.Fatalf("unexpected message type %q", head.Type)
		}
		var result protocol.GenerationResult
		if err := json.Unmarshal(data, &result); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		if !result.Success || result.MethodUsed != imagegen.MethodCanvas || result.RecordID == "" {
			t.Fatalf("result = %+v, want saved canvas result", result)
		}
		break
	}
	if statuses < 2 {
		t.Fatalf("statuses = %d, want at least 2 before the result", statuses)
	}
}
