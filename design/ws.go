package design

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"voyage/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// CORS is enforced in front of the router; tokens are checked by Authenticate.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 5 * time.Second

// hub fans a user's overlay changes out to all of that user's open tabs.
type hub struct {
	mu          sync.Mutex
	subscribers map[string]map[*websocket.Conn]*sync.Mutex
}

func newHub() *hub {
	return &hub{subscribers: make(map[string]map[*websocket.Conn]*sync.Mutex)}
}

func (h *hub) add(userID string, conn *websocket.Conn) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[userID] == nil {
		h.subscribers[userID] = make(map[*websocket.Conn]*sync.Mutex)
	}
	wmu := &sync.Mutex{}
	h.subscribers[userID][conn] = wmu
	return wmu
}

func (h *hub) remove(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers[userID], conn)
	if len(h.subscribers[userID]) == 0 {
		delete(h.subscribers, userID)
	}
}

// broadcast sends v to every connection of userID except skip.
func (h *hub) broadcast(userID string, skip *websocket.Conn, v any) {
	h.mu.Lock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(h.subscribers[userID]))
	for c, wmu := range h.subscribers[userID] {
		if c != skip {
			targets[c] = wmu
		}
	}
	h.mu.Unlock()

	for c, wmu := range targets {
		if err := write(c, wmu, v); err != nil {
			log.Debug().Err(err).Str("userId", userID).Msg("drop overlay subscriber")
			h.remove(userID, c)
			c.Close()
		}
	}
}

func write(c *websocket.Conn, wmu *sync.Mutex, v any) error {
	wmu.Lock()
	defer wmu.Unlock()
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.WriteJSON(v)
}

// HandleWS streams overlay ops. Each message is an Op; the sender gets a
// Reply, and the user's other connections get the new overlay.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	s, err := h.Registry.Session(r.Context(), userID)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadGateway, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	wmu := h.hub.add(userID, conn)
	defer func() {
		h.hub.remove(userID, conn)
		conn.Close()
	}()

	if err := write(conn, wmu, reply(s, s.Overlay(), nil)); err != nil {
		return
	}

	for {
		var op Op
		if err := conn.ReadJSON(&op); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("userId", userID).Msg("overlay socket closed")
			}
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		o, err := s.Apply(ctx, op)
		if err == nil {
			h.recordFont(ctx, userID, op)
		}
		cancel()

		res := reply(s, o, err)
		if err := write(conn, wmu, res); err != nil {
			return
		}
		if err == nil {
			h.hub.broadcast(userID, conn, res)
		}
	}
}
