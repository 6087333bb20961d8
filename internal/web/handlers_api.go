package web

import (
	"math"
	"net/http"
	"strconv"

	"heartclick/internal/game"

	"go.uber.org/zap"
)

// actionStore resolves the caller's store for a POST action. It writes the
// error response itself and returns false when the request cannot proceed.
func (s *Server) actionStore(w http.ResponseWriter, r *http.Request) (*game.Store, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return nil, false
	}
	store, _, err := s.getOrCreateStore(r.Context(), w, r)
	if err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return nil, false
	}
	return store, true
}

// respondState answers with the store view. A store closed by the session
// janitor while the request held it answers 409 so the page reloads into a
// fresh session.
func (s *Server) respondState(w http.ResponseWriter, store *game.Store) {
	if store.Closed() {
		http.Error(w, "session expired", http.StatusConflict)
		return
	}
	s.writeJSON(w, http.StatusOK, s.makeStateView(store.Snapshot()))
}

// parseCoord parses a finite click coordinate.
func parseCoord(v string) (float64, bool) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// GET /api/state
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	store, _, err := s.getOrCreateStore(r.Context(), w, r)
	if err != nil {
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	s.respondState(w, store)
}

// POST /api/click  x, y
func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	store, ok := s.actionStore(w, r)
	if !ok {
		return
	}
	x, okX := parseCoord(r.FormValue("x"))
	y, okY := parseCoord(r.FormValue("y"))
	if !okX || !okY {
		http.Error(w, "x and y must be finite numbers", http.StatusBadRequest)
		return
	}

	outcome := store.HandleClick(x, y)
	clicksTotal.WithLabelValues(string(outcome)).Inc()
	if outcome == game.ClickVictory {
		victoriesTotal.Inc()
	}
	s.respondState(w, store)
}

// GET /api/shop
func (s *Server) handleShop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Catalog.Shop)
}

// POST /api/shop/buy  item_id
func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	store, ok := s.actionStore(w, r)
	if !ok {
		return
	}
	itemID := r.FormValue("item_id")

	outcome := store.BuyItem(itemID)
	switch {
	case outcome.Bought():
		purchasesTotal.WithLabelValues(itemID).Inc()
		if outcome == game.PurchaseVictory {
			victoriesTotal.Inc()
		}
	case outcome == game.PurchaseUnknownItem:
		s.logger().Debug("unknown shop item", zap.String("item", itemID))
	}
	s.respondState(w, store)
}

// POST /api/modal  mode
func (s *Server) handleModal(w http.ResponseWriter, r *http.Request) {
	store, ok := s.actionStore(w, r)
	if !ok {
		return
	}
	if !store.SetModalMode(game.ModalMode(r.FormValue("mode"))) {
		http.Error(w, "unknown modal mode", http.StatusBadRequest)
		return
	}
	s.respondState(w, store)
}

// POST /api/modal/close
func (s *Server) handleModalClose(w http.ResponseWriter, r *http.Request) {
	store, ok := s.actionStore(w, r)
	if !ok {
		return
	}
	store.CloseModal()
	s.respondState(w, store)
}

// POST /api/modal/developing
func (s *Server) handleModalDeveloping(w http.ResponseWriter, r *http.Request) {
	store, ok := s.actionStore(w, r)
	if !ok {
		return
	}
	store.ShowDevelopingModal()
	s.respondState(w, store)
}

// POST /api/video/play  video_id
func (s *Server) handleVideoPlay(w http.ResponseWriter, r *http.Request) {
	store, ok := s.actionStore(w, r)
	if !ok {
		return
	}
	s.playVideo(w, store, r.FormValue("video_id"))
}

// POST /api/video/hidden
func (s *Server) handleVideoHidden(w http.ResponseWriter, r *http.Request) {
	store, ok := s.actionStore(w, r)
	if !ok {
		return
	}
	s.playVideo(w, store, game.HiddenVideoID)
}

func (s *Server) playVideo(w http.ResponseWriter, store *game.Store, videoID string) {
	st := store.State()
	if !s.Catalog.VideoUnlocked(st.SelectedCharacter, videoID, st.CharacterProgress) {
		http.Error(w, "video locked", http.StatusForbidden)
		return
	}
	store.PlaySpecificVideo(videoID)
	videoPlaysTotal.WithLabelValues(videoID).Inc()
	s.respondState(w, store)
}

// POST /api/video/exit
func (s *Server) handleVideoExit(w http.ResponseWriter, r *http.Request) {
	store, ok := s.actionStore(w, r)
	if !ok {
		return
	}
	store.ExitFullscreenPlay()
	s.respondState(w, store)
}

// GET /api/characters
func (s *Server) handleCharacters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	selected := s.Catalog.DefaultCharacter
	if store, ok := s.existingStore(r.Context(), r); ok {
		selected = store.State().SelectedCharacter
	}
	s.writeJSON(w, http.StatusOK, s.characterViews(selected))
}

// POST /api/character  character_id
// A locked character opens the developing modal instead of switching.
func (s *Server) handleCharacter(w http.ResponseWriter, r *http.Request) {
	store, ok := s.actionStore(w, r)
	if !ok {
		return
	}
	id := r.FormValue("character_id")
	if !s.Catalog.HasCharacter(id) {
		http.Error(w, "unknown character", http.StatusBadRequest)
		return
	}
	if s.Catalog.Character(id).IsUnlocked {
		store.ChangeCharacter(id)
	} else {
		store.ShowDevelopingModal()
	}
	s.respondState(w, store)
}

// POST /api/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	store, ok := s.actionStore(w, r)
	if !ok {
		return
	}
	store.ResetGame()
	s.respondState(w, store)
}
