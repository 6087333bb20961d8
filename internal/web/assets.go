package web

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const assetCacheControl = "public, max-age=3600"

func (s *Server) assetBase() string {
	if s.AssetDir == "" {
		return "public"
	}
	return s.AssetDir
}

// characterAssetPath validates a request path of the shape
// <prefix><characterID>/<name><ext> and returns the file it maps to under
// <AssetDir>/<subdir>/<characterID>/. The character must be in the roster
// and the name must not escape its directory.
func (s *Server) characterAssetPath(prefix, urlPath, subdir, ext string) (string, bool) {
	if !strings.HasPrefix(urlPath, prefix) {
		return "", false
	}

	rest := strings.Trim(strings.TrimPrefix(urlPath, prefix), "/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	characterID, filename := parts[0], parts[1]

	if s.Catalog == nil || !s.Catalog.HasCharacter(characterID) {
		return "", false
	}
	if !strings.EqualFold(filepath.Ext(filename), ext) {
		return "", false
	}

	safeFilename := filepath.Clean(filename)
	if safeFilename == "" || safeFilename == "." || strings.Contains(safeFilename, "..") ||
		filepath.IsAbs(safeFilename) || strings.Contains(safeFilename, string(filepath.Separator)) {
		return "", false
	}

	baseDir := filepath.Join(s.assetBase(), subdir, characterID)
	resolved := filepath.Join(baseDir, safeFilename)
	rel, err := filepath.Rel(baseDir, resolved)
	if err != nil || strings.Contains(rel, "..") {
		return "", false
	}
	return resolved, true
}

// serveFile streams path with range support. It reports false when the
// file is missing or a directory.
func serveFile(w http.ResponseWriter, r *http.Request, path, contentType string) bool {
	f, err := os.Open(path) // #nosec G304 -- path is under the validated asset dir
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", assetCacheControl)
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
	return true
}
