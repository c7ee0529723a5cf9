package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/causalgo/macid/internal/app"
	"github.com/causalgo/macid/internal/transport/analyzedto"
)

type Handler struct {
	svc app.AnalyzeService
}

func NewHandler(svc app.AnalyzeService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var in analyzedto.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json", "details": err.Error()})
		return
	}

	report, err := h.svc.Analyze(in.ToApp())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, analyzeErrorBody(err))
		return
	}
	writeJSON(w, http.StatusOK, analyzedto.AnalyzeResponse{Report: report})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func analyzeErrorBody(err error) map[string]any {
	return map[string]any{
		"error":   "analyze failed",
		"details": err.Error(),
	}
}
