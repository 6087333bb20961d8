package web

import "net/http"

const contentTypeMP4 = "video/mp4"

// handleVideo serves character videos from <AssetDir>/videos/<characterID>/.
// URL shape: /videos/<characterID>/<videoType>.mp4. Range requests are
// honoured so players can seek.
func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	path, ok := s.characterAssetPath("/videos/", r.URL.Path, "videos", ".mp4")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if !serveFile(w, r, path, contentTypeMP4) {
		http.NotFound(w, r)
	}
}
