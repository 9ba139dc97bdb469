package broadcast

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	defaultWriteWait = 2 * time.Second
	defaultQueueSize = 32
)

// subscriber owns one connection. Publish only queues frames; writeLoop is
// the sole writer of data frames.
type subscriber struct {
	conn      *websocket.Conn
	out       chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
}

func (s *subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.closeCh)
		s.conn.Close()
	})
}

// WSHub fans batches out to websocket subscribers of a lobby. Clients connect
// to /ws?lobby=<id>. Every subscriber has its own queue and writer goroutine;
// one whose queue is full or whose write fails is dropped.
type WSHub struct {
	codec     Codec
	writeWait time.Duration
	log       *zap.Logger
	upgrader  websocket.Upgrader

	// Allow, when set, rejects subscriptions to unknown lobbies.
	Allow func(lobbyID string) bool
	// QueueSize is the number of batches a subscriber may lag behind.
	QueueSize int

	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

func NewWSHub(codec Codec, writeWait time.Duration, log *zap.Logger) *WSHub {
	if writeWait <= 0 {
		writeWait = defaultWriteWait
	}
	return &WSHub{
		codec:     codec,
		writeWait: writeWait,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		QueueSize: defaultQueueSize,
		subs:      make(map[string]map[*subscriber]struct{}),
	}
}

func (h *WSHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lobbyID := r.URL.Query().Get("lobby")
	if lobbyID == "" {
		http.Error(w, "missing lobby", http.StatusBadRequest)
		return
	}
	if h.Allow != nil && !h.Allow(lobbyID) {
		http.Error(w, "unknown lobby", http.StatusNotFound)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.String("lobby", lobbyID), zap.Error(err))
		return
	}
	size := h.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	sub := &subscriber{conn: conn, out: make(chan []byte, size), closeCh: make(chan struct{})}
	h.add(lobbyID, sub)
	go h.writeLoop(lobbyID, sub)
	h.log.Debug("subscriber joined", zap.String("lobby", lobbyID), zap.String("remote", r.RemoteAddr))

	// Inbound frames are ignored; the read loop only notices the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(lobbyID, sub)
}

func (h *WSHub) add(lobbyID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[lobbyID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[lobbyID] = set
	}
	set[sub] = struct{}{}
}

func (h *WSHub) remove(lobbyID string, sub *subscriber) {
	h.mu.Lock()
	if set, ok := h.subs[lobbyID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, lobbyID)
		}
	}
	h.mu.Unlock()
	sub.close()
}

// writeLoop sends queued frames until the subscriber is closed.
func (h *WSHub) writeLoop(lobbyID string, s *subscriber) {
	for {
		select {
		case data := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := s.conn.WriteMessage(h.codec.FrameType(), data); err != nil {
				h.log.Info("dropping subscriber", zap.String("lobby", lobbyID), zap.Error(err))
				h.remove(lobbyID, s)
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

// Subscribers returns how many connections listen to a lobby.
func (h *WSHub) Subscribers(lobbyID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[lobbyID])
}

// Publish encodes the batch once and queues it for every subscriber of the
// session. It never waits on a connection; a subscriber too far behind is
// disconnected.
func (h *WSHub) Publish(sessionID string, batch []Message) error {
	h.mu.Lock()
	set := h.subs[sessionID]
	subs := make([]*subscriber, 0, len(set))
	for s := range set {
		subs = append(subs, s)
	}
	h.mu.Unlock()
	if len(subs) == 0 {
		return nil
	}

	data, err := h.codec.Encode(batch)
	if err != nil {
		return err
	}
	for _, s := range subs {
		select {
		case s.out <- data:
		default:
			h.log.Warn("subscriber queue full, dropping", zap.String("lobby", sessionID))
			h.remove(sessionID, s)
		}
	}
	return nil
}

// Close disconnects every subscriber.
func (h *WSHub) Close() error {
	h.mu.Lock()
	all := h.subs
	h.subs = make(map[string]map[*subscriber]struct{})
	h.mu.Unlock()
	for _, set := range all {
		for s := range set {
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(h.writeWait))
			s.close()
		}
	}
	return nil
}
