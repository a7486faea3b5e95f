// Package api provides HTTP handlers for Luka endpoints.
package api

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"log/slog"
	"net/http"
	"strings"

	"github.com/treinafit/luka/internal/flow"
	"github.com/treinafit/luka/internal/models"
	"github.com/treinafit/luka/internal/util"
)

// sessionCookie carries the web chat session id across requests.
const sessionCookie = "luka_session"

// processTurn runs one user message through the flow engine under the
// session lock, recording both sides on the transcript. A fresh session gets
// the greeting prepended so the transcript reads like the real conversation.
func (s *Server) processTurn(ctx context.Context, sessionID, text string) (string, error) {
	var reply string
	err := s.sessions.WithSession(ctx, sessionID, func(sc *models.SessionContext) error {
		if len(sc.History) == 0 {
			sc.AppendMessage(models.RoleBot, flow.FirstMessage())
		}
		sc.AppendMessage(models.RoleUser, text)
		reply = s.engine.HandleTurn(ctx, sessionID, sc, text)
		sc.AppendMessage(models.RoleBot, reply)
		return nil
	})
	return reply, err
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatHandler: processing chat request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.chatHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: message"))
		return
	}

	sessionID := s.sessionID(w, r)
	reply, err := s.processTurn(r.Context(), sessionID, message)
	if err != nil {
		slog.Error("Server.chatHandler: failed to process turn", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		return
	}

	slog.Info("Server.chatHandler: turn processed", "sessionID", sessionID)
	writeJSONResponse(w, http.StatusOK, models.Success(models.ChatReply{Reply: reply}))
}

// sessionID reads the session cookie, minting and setting a fresh id when the
// request carries none.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := util.GenerateSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})
	slog.Debug("Server.sessionID: minted new session", "sessionID", id)
	return id
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.historyHandler: processing history request", "method", r.Method)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		if c, err := r.Cookie(sessionCookie); err == nil {
			sessionID = c.Value
		}
	}
	if sessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: session_id"))
		return
	}

	sc, err := s.sessions.Peek(r.Context(), sessionID)
	if err != nil {
		slog.Error("Server.historyHandler: failed to load session", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}
	if sc == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	history := sc.History
	if history == nil {
		history = []models.ChatMessage{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(history))
}

// twilioWebhookHandler receives inbound WhatsApp messages from Twilio. The
// sender's number is the session id, so a phone keeps its conversation across
// messages. With an outbound sender configured the reply goes through the
// Twilio REST API; otherwise it is returned inline as TwiML.
func (s *Server) twilioWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.twilioWebhookHandler: processing webhook", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.Warn("Server.twilioWebhookHandler: failed to parse form", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid form payload"))
		return
	}

	from := r.PostFormValue("From")
	body := strings.TrimSpace(r.PostFormValue("Body"))
	if from == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required field: From"))
		return
	}

	reply, err := s.processTurn(r.Context(), from, body)
	if err != nil {
		slog.Error("Server.twilioWebhookHandler: failed to process turn", "error", err, "from", from)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		return
	}

	if s.sender != nil {
		to := strings.TrimPrefix(from, "whatsapp:")
		if err := s.sender.SendMessage(r.Context(), to, reply); err != nil {
			slog.Error("Server.twilioWebhookHandler: failed to send reply", "error", err, "to", to)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to send reply"))
			return
		}
		slog.Info("Server.twilioWebhookHandler: reply sent", "to", to)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	if err := writeTwiML(w, reply); err != nil {
		slog.Error("Server.twilioWebhookHandler: failed to write TwiML", "error", err)
	}
}

// twiML is the minimal messaging response document Twilio accepts.
type twiML struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func writeTwiML(w http.ResponseWriter, message string) error {
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(w).Encode(twiML{Message: message})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"service": "luka"}))
}
