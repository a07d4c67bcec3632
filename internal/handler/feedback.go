package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// feedbackRequest is the feedback form payload.
type feedbackRequest struct {
	IssueType       string `json:"issue_type" validate:"required"`
	Description     string `json:"description" validate:"required,min=10"`
	AttachmentInfo  string `json:"attachment_info,omitempty"`
	ImageAttachment string `json:"image_attachment,omitempty"`
	AttachmentName  string `json:"attachment_name,omitempty"`
}

// relayEnvelope is the EmailJS send-email body.
type relayEnvelope struct {
	ServiceID      string          `json:"service_id"`
	TemplateID     string          `json:"template_id"`
	UserID         string          `json:"user_id"` // the public key
	TemplateParams feedbackRequest `json:"template_params"`
}

// SendFeedback validates a feedback submission and relays it to the
// configured email service. When the relay is unreachable the feedback is
// logged server-side and the submission still succeeds, flagged as a
// fallback.
func (h *Handler) SendFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "issue_type and a description of at least 10 characters are required")
		return
	}

	if h.cfg.EmailServiceID == "" || h.cfg.EmailTemplateID == "" || h.cfg.EmailPublicKey == "" {
		writeError(w, http.StatusInternalServerError, "email service not configured")
		return
	}

	body, err := json.Marshal(relayEnvelope{
		ServiceID:      h.cfg.EmailServiceID,
		TemplateID:     h.cfg.EmailTemplateID,
		UserID:         h.cfg.EmailPublicKey,
		TemplateParams: req,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode relay request")
		return
	}

	relayReq, err := http.NewRequestWithContext(r.Context(), "POST", h.cfg.EmailRelayURL, bytes.NewReader(body))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build relay request")
		return
	}
	relayReq.Header.Set("Content-Type", "application/json")

	resp, err := h.relay.Do(relayReq)
	if err != nil {
		// Relay unreachable. Keep the feedback by logging it and report a
		// fallback success so the submission is not lost on the client.
		h.logger.Warn("feedback relay unreachable, logging locally",
			"error", err,
			"issue_type", req.IssueType,
			"description", req.Description,
			"attachment_info", req.AttachmentInfo,
		)
		if h.collector != nil {
			h.collector.FeedbackFallback.Inc()
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "fallback": true})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		h.logger.Warn("feedback relay rejected submission", "status", resp.StatusCode, "body", string(detail))
		writeError(w, http.StatusInternalServerError, "failed to send feedback")
		return
	}

	if h.collector != nil {
		h.collector.FeedbackSubmitted.Inc()
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Feedback sent successfully"})
}
