package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dgallion1/docview/internal/viewer"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsInbound asks the session to show a document. Address is a full or
// relative URL whose page parameter selects the document; Page, when set,
// names the document directly.
type wsInbound struct {
	Address string `json:"address,omitempty"`
	Page    string `json:"page,omitempty"`
}

// wsOutbound is one display change.
type wsOutbound struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Page      string `json:"page"`
	Title     string `json:"title,omitempty"`
	HTML      string `json:"html"`
	Error     string `json:"error,omitempty"`
}

const (
	stateLoading = "loading"
	stateReady   = "ready"
)

func outboundFor(id string, d viewer.Display) wsOutbound {
	out := wsOutbound{
		SessionID: id,
		State:     stateLoading,
		Page:      d.Request.Page,
		HTML:      loadingHTML,
	}
	if d.Err != nil {
		out.Error = d.Err.Error()
	}
	if d.View != nil {
		out.State = stateReady
		out.Title = d.View.Title
		out.HTML = d.View.HTML
	}
	return out
}

// handleWS binds one viewer session to a websocket. Every display change
// is pushed to the client in order.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		jsonError(w, "sessions unavailable", http.StatusServiceUnavailable)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writeCh := make(chan wsOutbound, 16)
	var sess *viewer.Session
	sess = s.sessions.Open(func(d viewer.Display) {
		out := outboundFor(sess.ID, d)
		select {
		case writeCh <- out:
		case <-ctx.Done():
		}
	})
	log := s.log.With("session_id", sess.ID)
	log.Info("viewer connected", "remote", r.RemoteAddr)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(out); err != nil {
					log.Debug("websocket write failed", "error", err)
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		sess.Touch()
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", "error", err)
			}
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var started bool
		if in.Page != "" {
			started = sess.Request(viewer.DocumentRequest{Page: in.Page})
		} else {
			started = sess.Navigate(in.Address)
		}
		if !started {
			sess.Refresh()
		}
	}

	cancel()
	<-writerDone
	s.sessions.Close(sess.ID)
	log.Info("viewer disconnected")
}
