package handler

import (
	"io"
	"net/http"
	"strings"
)

// TransitProxy forwards /api/transit/* requests to the transit collaborator
// with the API key injected server-side. Method, query string, and body pass
// through verbatim; the collaborator's status and body are relayed as-is.
func (h *Handler) TransitProxy(w http.ResponseWriter, r *http.Request) {
	if h.cfg.TransitAPIKey == "" {
		writeError(w, http.StatusInternalServerError, "transit API key not configured")
		return
	}

	endpoint := strings.TrimPrefix(r.URL.Path, "/api/transit")
	target := h.cfg.TransitBaseURL + endpoint
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	var body io.Reader
	if r.Method != http.MethodGet && r.Body != nil {
		body = r.Body
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error forwarding request to transit API")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apiKey", h.cfg.TransitAPIKey)

	resp, err := h.proxy.Do(req)
	if err != nil {
		h.logger.Warn("transit proxy upstream failure", "error", err, "endpoint", endpoint)
		if h.collector != nil {
			h.collector.UpstreamErrors.WithLabelValues("transit").Inc()
		}
		writeError(w, http.StatusInternalServerError, "error forwarding request to transit API")
		return
	}
	defer resp.Body.Close()

	if h.collector != nil {
		h.collector.UpstreamRequests.WithLabelValues("transit").Inc()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}
