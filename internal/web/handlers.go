package web

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"sync"
	"time"

	"heartclick/internal/game"
	"heartclick/internal/session"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server serves the game page and the action API. Each browser session owns
// one game.Store.
type Server struct {
	Catalog      *game.Catalog
	Sessions     session.Store[*game.Store]
	Tmpl         *template.Template
	Log          *zap.Logger
	AssetDir     string
	Clock        game.Clock
	CookieSecure bool

	createMu sync.Mutex
}

const cookieName = "heartclick_sid"

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)

	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/click", s.handleClick)
	mux.HandleFunc("/api/shop", s.handleShop)
	mux.HandleFunc("/api/shop/buy", s.handleBuy)
	mux.HandleFunc("/api/modal", s.handleModal)
	mux.HandleFunc("/api/modal/close", s.handleModalClose)
	mux.HandleFunc("/api/modal/developing", s.handleModalDeveloping)
	mux.HandleFunc("/api/video/play", s.handleVideoPlay)
	mux.HandleFunc("/api/video/hidden", s.handleVideoHidden)
	mux.HandleFunc("/api/video/exit", s.handleVideoExit)
	mux.HandleFunc("/api/characters", s.handleCharacters)
	mux.HandleFunc("/api/character", s.handleCharacter)
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/api/certificate.pdf", s.handleCertificate)

	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/videos/", s.handleVideo)
	mux.HandleFunc("/character/", s.handleAvatar)
	mux.Handle("/metrics", promhttp.Handler())
	return s.logRequests(mux)
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) clock() game.Clock {
	if s.Clock == nil {
		return game.RealClock{}
	}
	return s.Clock
}

// GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	store, _, err := s.getOrCreateStore(r.Context(), w, r)
	if err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	vm := s.makePageViewModel(store.Snapshot())
	if err := s.Tmpl.ExecuteTemplate(w, "index.html", vm); err != nil {
		s.logger().Error("render page", zap.Error(err))
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.Sessions.Len()})
}

// getOrCreateStore returns the store of the caller's session, starting a
// new session when the cookie is missing or no longer known.
func (s *Server) getOrCreateStore(ctx context.Context, w http.ResponseWriter, r *http.Request) (*game.Store, string, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()

	if id := s.sessionID(r); id != "" {
		store, ok, err := s.Sessions.Get(ctx, id)
		if err != nil {
			return nil, "", err
		}
		if ok {
			return store, id, nil
		}
	}

	// Unknown cookies are never adopted as session ids.
	id := s.Sessions.NewID()

	store := game.NewStore(s.Catalog,
		game.WithClock(s.clock()),
		game.WithLogger(s.logger().Named("store").With(zap.String("session", shortID(id)))),
	)
	if err := s.Sessions.Put(ctx, id, store); err != nil {
		store.Close()
		return nil, "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	sessionsActive.Set(float64(s.Sessions.Len()))
	s.logger().Debug("session started", zap.String("session", shortID(id)))
	return store, id, nil
}

// existingStore returns the store of the caller's session without creating one.
func (s *Server) existingStore(ctx context.Context, r *http.Request) (*game.Store, bool) {
	id := s.sessionID(r)
	if id == "" {
		return nil, false
	}
	store, ok, err := s.Sessions.Get(ctx, id)
	if err != nil || !ok {
		return nil, false
	}
	return store, true
}

func (s *Server) sessionID(r *http.Request) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// SweepSessions closes and drops sessions idle for longer than idle.
func (s *Server) SweepSessions(ctx context.Context, idle time.Duration) (int, error) {
	evicted, err := s.Sessions.Sweep(ctx, idle)
	if err != nil {
		return 0, err
	}
	for _, store := range evicted {
		store.Close()
	}
	sessionsEvicted.Add(float64(len(evicted)))
	sessionsActive.Set(float64(s.Sessions.Len()))
	return len(evicted), nil
}

// RunJanitor sweeps idle sessions every interval until ctx is done, then
// closes every remaining store.
func (s *Server) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if _, err := s.SweepSessions(context.Background(), -time.Hour); err != nil {
				s.logger().Error("final session sweep", zap.Error(err))
			}
			return
		case <-ticker.C:
			n, err := s.SweepSessions(ctx, idle)
			if err != nil {
				s.logger().Error("session sweep", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger().Info("idle sessions closed", zap.Int("count", n))
			}
		}
	}
}

// writeJSON encodes v before touching the response so an encode failure
// can still answer 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.logger().Error("encode response", zap.Error(err))
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(append(b, '\n')); err != nil {
		s.logger().Debug("write response", zap.Error(err))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
