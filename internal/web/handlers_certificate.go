package web

import (
	"net/http"

	"heartclick/internal/certificate"

	"go.uber.org/zap"
)

// GET /api/certificate.pdf
func (s *Server) handleCertificate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	store, ok := s.existingStore(r.Context(), r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	pdf, err := certificate.Generate(s.Catalog, store.State(), s.clock().Now())
	if err != nil {
		s.logger().Error("certificate", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="affection-certificate.pdf"`)
	if _, err := w.Write(pdf); err != nil {
		s.logger().Warn("write certificate", zap.Error(err))
	}
}
