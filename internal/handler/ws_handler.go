package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/assesshub/assesshub-backend/internal/middleware"
	sess "github.com/assesshub/assesshub-backend/internal/session"
	ws "github.com/assesshub/assesshub-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// timerSyncInterval is how often the server re-anchors the client countdown.
const timerSyncInterval = 10 * time.Second

// WSHandler streams a live session over WebSocket: autosave in, timer sync
// and expiry notifications out.
type WSHandler struct {
	sessions *sess.Manager
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessions *sess.Manager, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// wsConn serializes writes; gorilla connections do not allow concurrent
// writers and the timer sync goroutine races the reply path.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteTyped(w.conn, v)
}

func (w *wsConn) writeError(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = ws.WriteError(w.conn, msg)
}

// SessionStream godoc
// WS /ws/v1/portal/assessments/:id/stream?token=...
// Upgrades to WebSocket for real-time autosave and server-authoritative
// timer sync during a live session.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	assessmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || assessmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assessment ID"})
		return
	}

	live, ok := h.sessions.Get(assessmentID, claims.UserID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wc := &wsConn{conn: conn}
	wsLog := h.log.With().
		Int64("user_ref", claims.UserID).
		Int64("assessment_id", assessmentID).
		Logger()
	wsLog.Info().Msg("Candidate connected")

	done := make(chan struct{})
	defer close(done)
	go h.pushTimerSync(wc, live, done)

	for {
		var raw json.RawMessage
		if err := ws.ReadJSON(conn, &raw); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			wc.writeError("malformed message")
			continue
		}

		switch envelope.Action {
		case ws.ActionAutosave:
			h.handleAutosave(wc, live, raw)
		case ws.ActionSubmit:
			h.handleSubmit(c, wc, wsLog, live)
		case ws.ActionPing:
			_ = wc.write(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			wc.writeError("unknown action: " + string(envelope.Action))
		}
	}
}

// pushTimerSync periodically re-anchors the client countdown and announces
// how the session ended.
func (h *WSHandler) pushTimerSync(wc *wsConn, live *sess.Session, done <-chan struct{}) {
	ticker := time.NewTicker(timerSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			state := live.State()
			if state == sess.StateTerminated {
				_ = wc.write(terminalEvent(live))
				return
			}
			if state != sess.StateActive {
				continue
			}
			if err := wc.write(ws.TimerSyncResponse{
				Event:            ws.EventTimerSync,
				RemainingSeconds: live.Remaining(),
			}); err != nil {
				return
			}
		}
	}
}

// terminalEvent picks the event announcing why a session ended: expiry when
// the countdown ran out, a submitted notice when the attempt was delivered
// through another path (REST submit, second tab), and a plain error when the
// session was torn down without submitting.
func terminalEvent(live *sess.Session) interface{} {
	switch {
	case live.Remaining() == 0:
		return ws.ExpiredResponse{Event: ws.EventExpired}
	case live.Submitted():
		return ws.SubmittedResponse{
			Event:  ws.EventSubmitted,
			Status: "completed",
			Method: string(sess.SubmitManual.Method()),
		}
	default:
		return ws.ErrorResponse{Event: ws.EventError, Error: "session closed"}
	}
}

// handleAutosave records one answer on the live session; the session's
// answer sink feeds the persistence queue.
func (h *WSHandler) handleAutosave(wc *wsConn, live *sess.Session, raw json.RawMessage) {
	var msg ws.AutosaveRequest
	if err := json.Unmarshal(raw, &msg); err != nil || msg.QuestionID <= 0 {
		wc.writeError("question_id and answer are required")
		return
	}

	if err := live.RecordAnswer(msg.QuestionID, msg.Answer); err != nil {
		wc.writeError("session is not active")
		return
	}
	_ = wc.write(ws.AutosaveResponse{Event: ws.EventSuccess, Status: "saved"})
}

// handleSubmit finishes the attempt over the socket. The in-flight guard
// makes racing the REST submit or the expiry timer harmless.
func (h *WSHandler) handleSubmit(c *gin.Context, wc *wsConn, wsLog zerolog.Logger, live *sess.Session) {
	if err := live.Submit(c.Request.Context(), sess.SubmitManual); err != nil {
		wsLog.Warn().Err(err).Msg("WebSocket submit rejected")
		wc.writeError("submit failed")
		return
	}
	_ = wc.write(ws.SubmittedResponse{
		Event:  ws.EventSubmitted,
		Status: "completed",
		Method: string(sess.SubmitManual.Method()),
	})
}
