package httpapi

import (
	"time"

	"talktrace/internal/projection"
	"talktrace/internal/session"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// Update is one WebSocket message: the state after a transition and its projection.
type Update struct {
	Sequence uint64                `json:"sequence"`
	Loading  bool                  `json:"loading"`
	Phase    session.Phase         `json:"phase"`
	State    session.State         `json:"state"`
	Chart    projection.ChartModel `json:"chart"`
}

func newUpdate(st session.State) Update {
	return Update{
		Sequence: st.LatestSequence,
		Loading:  st.Loading,
		Phase:    st.Phase(),
		State:    st,
		Chart:    projection.Project(st),
	}
}

// handleEvents upgrades to a WebSocket and pushes an Update for the current
// state and after every transition. Client messages are ignored.
// GET /api/events
func (s *Server) handleEvents(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to upgrade WebSocket")
		return err
	}
	connID := uuid.New().String()
	defer ws.Close()

	ctx := c.Request().Context()
	updates, unsubscribe, err := s.store.Subscribe(ctx)
	if err != nil {
		_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
		return nil
	}
	defer unsubscribe()
	log.Debug().Str("conn", connID).Msg("WebSocket subscriber connected")

	closed := make(chan struct{})
	go s.readPump(ws, closed)

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case st, ok := <-updates:
			_ = ws.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "session stopped"))
				return nil
			}
			if err := ws.WriteJSON(newUpdate(st)); err != nil {
				log.Debug().Err(err).Str("conn", connID).Msg("WebSocket write failed")
				return nil
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-closed:
			log.Debug().Str("conn", connID).Msg("WebSocket subscriber disconnected")
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// readPump drains client frames so control messages are processed, and
// signals closed when the peer goes away.
func (s *Server) readPump(ws *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	ws.SetReadLimit(4096)
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("WebSocket read error")
			}
			return
		}
	}
}
