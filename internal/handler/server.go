package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server accepts player connections on /play?name=<name>. Every connection
// is one client; the first frame sent back carries its id.
type Server struct {
	reg       *Registry
	deps      *Deps
	writeWait time.Duration
	upgrader  websocket.Upgrader
}

func NewServer(reg *Registry, deps *Deps, writeWait time.Duration) *Server {
	return &Server{
		reg:       reg,
		deps:      deps,
		writeWait: writeWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

type hello struct {
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.deps.Log.Debug("play upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	c := s.deps.Lobbies.CreateClient(name)
	defer s.deps.Lobbies.RemoveClient(c.ID)
	sess := NewSession(c, s.deps)
	log := s.deps.Log.With(zap.String("client", c.ID))
	log.Info("player connected", zap.String("name", c.Name), zap.String("remote", r.RemoteAddr))

	send := func(v any) error {
		conn.SetWriteDeadline(time.Now().Add(s.writeWait))
		return conn.WriteJSON(v)
	}
	if err := send(Reply{Op: "hello", OK: true, Data: hello{ClientID: c.ID, Name: c.Name}}); err != nil {
		return
	}
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Info("player disconnected", zap.Error(err))
			return
		}
		if err := send(s.reg.Dispatch(sess, raw)); err != nil {
			log.Info("reply failed", zap.Error(err))
			return
		}
	}
}
