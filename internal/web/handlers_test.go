package web

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"heartclick/internal/game"
	"heartclick/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2025, 2, 14, 12, 0, 0, 0, time.UTC)

func testServer(t *testing.T) (*Server, *game.FakeClock) {
	t.Helper()
	tmpl, err := DefaultTemplates()
	require.NoError(t, err)
	clk := game.NewFakeClock(testStart)
	srv := &Server{
		Catalog:  game.DefaultCatalog(),
		Sessions: session.NewMemoryStore[*game.Store](),
		Tmpl:     tmpl,
		Clock:    clk,
		AssetDir: t.TempDir(),
	}
	t.Cleanup(func() {
		_, _ = srv.SweepSessions(context.Background(), -time.Hour)
	})
	return srv, clk
}

// client replays the session cookie handed out by the first response.
type client struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func newClient(t *testing.T, srv *Server) *client {
	return &client{t: t, h: srv.Routes()}
}

func (c *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == cookieName {
			c.cookie = ck
		}
	}
	return rec
}

func (c *client) post(path string, form url.Values) StateView {
	c.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	rec := c.do(http.MethodPost, path, form)
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeView(c.t, rec)
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) StateView {
	t.Helper()
	var v StateView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHandleIndex(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)

	rec := c.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, c.cookie, "first visit should start a session")
	assert.True(t, c.cookie.HttpOnly)

	body := rec.Body.String()
	assert.Contains(t, body, "<title>Shenmuli | heartclick</title>")
	assert.Contains(t, body, `id="bootstrap"`)
	assert.Contains(t, body, `"heartLifetimeMs":1000`)
	assert.Contains(t, body, "/videos/shenmuli/demo-video.mp4")
	assert.Equal(t, 1, srv.Sessions.Len())

	// Second visit reuses the session.
	first := c.cookie.Value
	c.do(http.MethodGet, "/", nil)
	assert.Equal(t, first, c.cookie.Value)
	assert.Equal(t, 1, srv.Sessions.Len())
}

func TestHandleIndexNotFound(t *testing.T) {
	srv, _ := testServer(t)
	rec := newClient(t, srv).do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleIndexUnknownCookie(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)
	c.cookie = &http.Cookie{Name: cookieName, Value: "stale"}

	rec := c.do(http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.Equal(t, 20, view.State.CurrentStamina)
	assert.Equal(t, 1, srv.Sessions.Len())
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)
	rec := newClient(t, srv).do(http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, rec.Body.String())
}

func TestHandleState(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)

	rec := c.do(http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	view := decodeView(t, rec)
	assert.Equal(t, 0, view.State.CharacterProgress)
	assert.Equal(t, 20, view.State.MaxStamina)
	assert.Equal(t, "shenmuli", view.State.SelectedCharacter)
	assert.Equal(t, game.ModalNone, view.ModalMode)
	assert.Equal(t, "Shenmuli", view.Character.DisplayName)
	assert.Equal(t, "/character/shenmuli.png", view.AvatarPath)
	assert.Equal(t, "/videos/shenmuli/demo-video.mp4", view.VideoPath)
	assert.Len(t, view.Videos, 3)
	assert.Equal(t, 1, view.UnlockedVideos)

	rec = c.do(http.MethodPost, "/api/state", url.Values{})
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleClick(t *testing.T) {
	srv, clk := testServer(t)
	c := newClient(t, srv)

	view := c.post("/api/click", url.Values{"x": {"120"}, "y": {"340.5"}})
	assert.Equal(t, 18, view.State.CurrentStamina)
	assert.Equal(t, 2, view.State.CharacterProgress)
	require.Len(t, view.HeartEffects, 1)
	assert.InDelta(t, 120, view.HeartEffects[0].X, 0.001)
	assert.InDelta(t, 340.5, view.HeartEffects[0].Y, 0.001)
	assert.Equal(t, testStart.UnixMilli(), view.HeartEffects[0].Timestamp)

	clk.Advance(game.HeartLifetime)
	rec := c.do(http.MethodGet, "/api/state", nil)
	assert.Empty(t, decodeView(t, rec).HeartEffects)
}

func TestHandleClickRejectsBadInput(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)

	for _, xy := range [][2]string{
		{"left", "1"},
		{"NaN", "1"},
		{"1", "nan"},
		{"Inf", "1"},
		{"1", "-Inf"},
		{"+Infinity", "2"},
		{"", "2"},
	} {
		rec := c.do(http.MethodPost, "/api/click", url.Values{"x": {xy[0]}, "y": {xy[1]}})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "x=%s y=%s", xy[0], xy[1])
	}

	// The session is still encodable and untouched.
	rec := c.do(http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeView(t, rec)
	assert.Empty(t, view.HeartEffects)
	assert.Equal(t, 20, view.State.CurrentStamina)

	rec = c.do(http.MethodGet, "/api/click", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleClickOutOfStamina(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)
	xy := url.Values{"x": {"1"}, "y": {"1"}}

	for i := 0; i < 10; i++ {
		c.post("/api/click", xy)
	}
	view := c.post("/api/click", xy)
	assert.Equal(t, 0, view.State.CurrentStamina)
	assert.Equal(t, 20, view.State.CharacterProgress)
	assert.Equal(t, game.ModalInsufficientStamina, view.ModalMode)
	assert.Len(t, view.HeartEffects, 10)
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	srv, _ := testServer(t)
	rec := httptest.NewRecorder()

	srv.writeJSON(rec, http.StatusOK, map[string]float64{"x": math.NaN()})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEqual(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRespondState_ClosedStore(t *testing.T) {
	srv, clk := testServer(t)
	store := game.NewStore(srv.Catalog, game.WithClock(clk))
	store.Close()

	rec := httptest.NewRecorder()
	srv.respondState(rec, store)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// metricValue reads an unlabelled sample from the /metrics exposition.
func metricValue(t *testing.T, c *client, name string) float64 {
	t.Helper()
	rec := c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if v, ok := strings.CutPrefix(line, name+" "); ok {
			f, err := strconv.ParseFloat(v, 64)
			require.NoError(t, err)
			return f
		}
	}
	t.Fatalf("metric %s not exposed", name)
	return 0
}

func TestVictoryCountedOncePerWin(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)
	before := metricValue(t, c, "heartclick_victories_total")

	for i := 0; i < 4; i++ {
		c.post("/api/shop/buy", url.Values{"item_id": {"magic-kiss"}})
	}
	c.post("/api/shop/buy", url.Values{"item_id": {"love-potion"}})
	c.post("/api/click", url.Values{"x": {"1"}, "y": {"1"}})

	assert.Equal(t, before+1, metricValue(t, c, "heartclick_victories_total"))
}

func TestHandleShop(t *testing.T) {
	srv, _ := testServer(t)
	rec := newClient(t, srv).do(http.MethodGet, "/api/shop", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []game.ShopItem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&items))
	require.Len(t, items, 6)
	assert.Equal(t, "energy-drink", items[0].ID)
	assert.Equal(t, game.StaminaUpgradeID, items[5].ID)
}

func TestHandleBuy(t *testing.T) {
	srv, clk := testServer(t)
	c := newClient(t, srv)

	c.post("/api/modal", url.Values{"mode": {"shop"}})
	view := c.post("/api/shop/buy", url.Values{"item_id": {game.StaminaUpgradeID}})
	assert.Equal(t, 25, view.State.MaxStamina)
	assert.Equal(t, 25, view.State.CurrentStamina)
	assert.Equal(t, game.ModalNone, view.ModalMode)

	// Unknown items change nothing.
	c.post("/api/modal", url.Values{"mode": {"shop"}})
	view = c.post("/api/shop/buy", url.Values{"item_id": {"golden-apple"}})
	assert.Equal(t, 25, view.State.CurrentStamina)
	assert.Equal(t, game.ModalShop, view.ModalMode)

	for i := 0; i < 4; i++ {
		view = c.post("/api/shop/buy", url.Values{"item_id": {"magic-kiss"}})
	}
	assert.Equal(t, 100, view.State.CharacterProgress)
	assert.True(t, view.State.IsWin)
	assert.Equal(t, game.ModalNone, view.ModalMode, "victory modal waits for the progress animation")

	clk.Advance(game.VictoryDelay)
	view = decodeView(t, c.do(http.MethodGet, "/api/state", nil))
	assert.Equal(t, game.ModalVictory, view.ModalMode)
}

func TestHandleModal(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)

	view := c.post("/api/modal", url.Values{"mode": {"developing"}})
	assert.Equal(t, game.ModalDeveloping, view.ModalMode)

	view = c.post("/api/modal/close", nil)
	assert.Equal(t, game.ModalNone, view.ModalMode)

	view = c.post("/api/modal/developing", nil)
	assert.Equal(t, game.ModalDeveloping, view.ModalMode)

	rec := c.do(http.MethodPost, "/api/modal", url.Values{"mode": {"settings"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVideo(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)

	rec := c.do(http.MethodPost, "/api/video/play", url.Values{"video_id": {"video-1"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = c.do(http.MethodPost, "/api/video/hidden", url.Values{})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	view := c.post("/api/video/play", url.Values{"video_id": {game.DefaultVideoID}})
	assert.True(t, view.State.IsFullscreenPlaying)
	assert.False(t, view.State.IsPlayingHiddenVideo)

	c.post("/api/shop/buy", url.Values{"item_id": {"magic-kiss"}})
	c.post("/api/shop/buy", url.Values{"item_id": {"magic-kiss"}})
	view = c.post("/api/video/play", url.Values{"video_id": {"video-1"}})
	assert.Equal(t, "video-1", view.State.CurrentVideoType)
	assert.Equal(t, "/videos/shenmuli/video-1.mp4", view.VideoPath)
	assert.Equal(t, 2, view.UnlockedVideos)

	view = c.post("/api/video/exit", nil)
	assert.False(t, view.State.IsFullscreenPlaying)
	assert.Equal(t, game.DefaultVideoID, view.State.CurrentVideoType)
}

func TestHandleVideoHiddenAfterWin(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)
	for i := 0; i < 4; i++ {
		c.post("/api/shop/buy", url.Values{"item_id": {"magic-kiss"}})
	}

	view := c.post("/api/video/hidden", nil)
	assert.True(t, view.State.IsPlayingHiddenVideo)
	assert.True(t, view.State.IsFullscreenPlaying)
	assert.Equal(t, "/videos/shenmuli/hidden-video.mp4", view.VideoPath)
}

func TestHandleCharacters(t *testing.T) {
	srv, _ := testServer(t)
	rec := newClient(t, srv).do(http.MethodGet, "/api/characters", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var roster []CharacterView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&roster))
	require.Len(t, roster, 4)
	assert.True(t, roster[0].Selected)
	assert.True(t, roster[0].IsUnlocked)
	assert.Equal(t, "/character/zoe.png", roster[1].AvatarPath)
	assert.False(t, roster[1].IsUnlocked)
}

func TestHandleCharacter(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)

	view := c.post("/api/character", url.Values{"character_id": {"zoe"}})
	assert.Equal(t, "shenmuli", view.State.SelectedCharacter, "locked characters stay unselectable")
	assert.Equal(t, game.ModalDeveloping, view.ModalMode)

	rec := c.do(http.MethodPost, "/api/character", url.Values{"character_id": {"nobody"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c.post("/api/click", url.Values{"x": {"1"}, "y": {"1"}})
	view = c.post("/api/character", url.Values{"character_id": {"shenmuli"}})
	assert.Equal(t, 2, view.State.CharacterProgress)
	assert.Equal(t, game.DefaultVideoID, view.State.CurrentVideoType)
}

func TestHandleReset(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)

	c.post("/api/click", url.Values{"x": {"1"}, "y": {"1"}})
	c.post("/api/shop/buy", url.Values{"item_id": {game.StaminaUpgradeID}})
	c.post("/api/modal", url.Values{"mode": {"shop"}})

	view := c.post("/api/reset", nil)
	assert.Equal(t, 0, view.State.CharacterProgress)
	assert.Equal(t, 20, view.State.CurrentStamina)
	assert.Equal(t, 20, view.State.MaxStamina)
	assert.Empty(t, view.HeartEffects)
	assert.Equal(t, game.ModalNone, view.ModalMode)
}

func TestHandleCertificate(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)

	rec := c.do(http.MethodGet, "/api/certificate.pdf", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	c.post("/api/click", url.Values{"x": {"1"}, "y": {"1"}})
	rec = c.do(http.MethodGet, "/api/certificate.pdf", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
}

func TestMetrics(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)
	c.post("/api/click", url.Values{"x": {"1"}, "y": {"1"}})

	rec := c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `heartclick_clicks_total{outcome="accepted"}`)
	assert.Contains(t, body, "heartclick_sessions_active")
}

func TestSweepSessions(t *testing.T) {
	srv, _ := testServer(t)
	c := newClient(t, srv)
	c.do(http.MethodGet, "/", nil)
	require.Equal(t, 1, srv.Sessions.Len())

	n, err := srv.SweepSessions(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = srv.SweepSessions(context.Background(), -time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, srv.Sessions.Len())

	// The dropped cookie starts a fresh game.
	view := decodeView(t, c.do(http.MethodGet, "/api/state", nil))
	assert.Equal(t, 0, view.State.CharacterProgress)
	assert.Equal(t, 1, srv.Sessions.Len())
}

func TestRunJanitorClosesSessionsOnShutdown(t *testing.T) {
	srv, _ := testServer(t)
	newClient(t, srv).do(http.MethodGet, "/", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.RunJanitor(ctx, time.Hour, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
	assert.Zero(t, srv.Sessions.Len())
}
