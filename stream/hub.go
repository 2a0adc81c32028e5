// Package stream broadcasts density frames to websocket clients.
//
// Each frame is one binary message:
//
//	tick  uint64 little-endian
//	n     uint32 little-endian
//	cells n*n float32 little-endian, interior rows 1..n, row-major
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/gridfluid/field"
)

const (
	headerSize = 12
	writeWait  = 2 * time.Second
)

// ErrShortFrame is returned by DecodeFrame for a truncated message.
var ErrShortFrame = errors.New("stream: short frame")

// Hub tracks connected viewers. Broadcast may be called from the simulation
// goroutine while ServeHTTP runs on server goroutines.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
	closed  bool
}

// NewHub creates an empty hub that accepts any origin.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the client goes away. Incoming messages are discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()
	slog.Info("stream client connected", "remote", conn.RemoteAddr().String())

	defer h.remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok {
		conn.Close()
		slog.Info("stream client disconnected", "remote", conn.RemoteAddr().String())
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast encodes density and sends it to every client. Clients whose
// write fails are dropped. It is a no-op with no clients connected.
func (h *Hub) Broadcast(tick int64, density *field.Grid) {
	if h.Clients() == 0 {
		return
	}
	frame := EncodeFrame(tick, density)

	h.mu.RLock()
	var dead []*websocket.Conn
	for conn, mu := range h.clients {
		mu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := conn.WriteMessage(websocket.BinaryMessage, frame)
		mu.Unlock()
		if err != nil {
			dead = append(dead, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range dead {
		h.remove(conn)
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clients = make(map[*websocket.Conn]*sync.Mutex)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(writeWait))
		conn.Close()
	}
}

// EncodeFrame packs component 0 of the interior of g.
func EncodeFrame(tick int64, g *field.Grid) []byte {
	n := g.N
	buf := make([]byte, headerSize+4*n*n)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(tick))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(n))

	off := headerSize
	for j := 1; j <= n; j++ {
		row := g.Interior(j)
		for i := 0; i < n; i++ {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(row[i*g.Components]))
			off += 4
		}
	}
	return buf
}

// DecodeFrame unpacks a frame produced by EncodeFrame.
func DecodeFrame(b []byte) (tick int64, n int, cells []float32, err error) {
	if len(b) < headerSize {
		return 0, 0, nil, ErrShortFrame
	}
	tick = int64(binary.LittleEndian.Uint64(b[0:8]))
	n = int(binary.LittleEndian.Uint32(b[8:12]))
	if len(b) != headerSize+4*n*n {
		return 0, 0, nil, fmt.Errorf("%w: %d bytes for n=%d", ErrShortFrame, len(b), n)
	}
	cells = make([]float32, n*n)
	for k := range cells {
		cells[k] = math.Float32frombits(binary.LittleEndian.Uint32(b[headerSize+4*k:]))
	}
	return tick, n, cells, nil
}
