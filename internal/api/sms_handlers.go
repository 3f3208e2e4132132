package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BTreeMap/NimaCare/internal/models"
	"github.com/BTreeMap/NimaCare/internal/session"
	"github.com/BTreeMap/NimaCare/internal/sms"
)

// emptyTwiML acknowledges a webhook without an inline reply; replies go out
// through the REST API.
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// smsWebhookHandler handles POST /sms/webhook. Every text from the same phone
// number continues one session.
func (s *Server) smsWebhookHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := r.ParseForm(); err != nil {
		slog.Warn("Server.smsWebhookHandler: failed to parse form", "error", err)
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if s.smsValidator != nil {
		params := make(map[string]string, len(r.PostForm))
		for k, v := range r.PostForm {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
		if !s.smsValidator.Validate(s.webhookURL, params, r.Header.Get("X-Twilio-Signature")) {
			slog.Warn("Server.smsWebhookHandler: signature validation failed", "remote", r.RemoteAddr)
			http.Error(w, "invalid signature", http.StatusForbidden)
			return
		}
	}

	from := r.PostForm.Get("From")
	body := strings.TrimSpace(r.PostForm.Get("Body"))
	sessionID := sms.SessionIDForPhone(from)
	if sessionID == "" {
		slog.Warn("Server.smsWebhookHandler: missing sender", "from", from)
		http.Error(w, "missing From", http.StatusBadRequest)
		return
	}
	if body == "" {
		slog.Debug("Server.smsWebhookHandler: ignoring empty message", "sessionID", sessionID)
		writeTwiML(w)
		return
	}

	res, err := s.manager.HandleMessage(r.Context(), sessionID, from, body)
	switch {
	case errors.Is(err, session.ErrWorkflowComplete):
		slog.Info("Server.smsWebhookHandler: resending closing message", "sessionID", sessionID)
	case err != nil && statusForError(err) == http.StatusBadRequest:
		// The texter cannot see a status code, so rejected input gets a reply.
		slog.Warn("Server.smsWebhookHandler: message rejected", "sessionID", sessionID, "error", err)
		s.sendSMS(r, from, smsRejectedReply(err))
		writeTwiML(w)
		return
	case err != nil:
		slog.Error("Server.smsWebhookHandler: failed to process message", "sessionID", sessionID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if res.Reply != "" {
		s.sendSMS(r, from, res.Reply)
	}
	writeTwiML(w)
}

func smsRejectedReply(err error) string {
	if errors.Is(err, models.ErrMessageTooLong) {
		return fmt.Sprintf("Sorry, that message was too long for me to read. Please keep it under %d characters.", models.MaxMessageLength)
	}
	return "Sorry, I couldn't read that message. Could you send it again?"
}

func (s *Server) sendSMS(r *http.Request, to, body string) {
	if s.sms == nil {
		slog.Warn("Server.smsWebhookHandler: SMS sender not configured, reply dropped", "to", to)
		return
	}
	if err := s.sms.SendMessage(r.Context(), to, body); err != nil {
		slog.Error("Server.smsWebhookHandler: failed to send reply", "to", to, "error", err)
	}
}

func writeTwiML(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(emptyTwiML)); err != nil {
		slog.Error("Server.writeTwiML: failed to write response", "error", err)
	}
}
