package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vnkhanh/e-podcast-content/logger"
	"github.com/vnkhanh/e-podcast-content/services"
)

const sendBuffer = 256

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Hub giữ các kết nối theo fileID.
type Hub struct {
	clients map[string]map[*websocket.Conn]*Client
	mu      sync.RWMutex
	log     *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*websocket.Conn]*Client),
		log:     log.With("component", "ws"),
	}
}

// Struct gửi tiến trình sinh nội dung của 1 file
type ProgressUpdate struct {
	FileID string `json:"file_id"`
	services.ProgressEvent
}

// Register theo fileID riêng, writePump chạy ở goroutine riêng
func (h *Hub) Register(fileID string, conn *websocket.Conn) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[fileID]; !ok {
		h.clients[fileID] = make(map[*websocket.Conn]*Client)
	}
	client := &Client{
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
	}
	h.clients[fileID][conn] = client

	go h.writePump(client)
	return client
}

func (h *Hub) Unregister(fileID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[fileID]; ok {
		if client, ok := clients[conn]; ok {
			close(client.Send)
			delete(clients, conn)
		}
		if len(clients) == 0 {
			delete(h.clients, fileID)
		}
	}
}

// Broadcast theo fileID, client nghẽn thì bỏ message
func (h *Hub) Broadcast(fileID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[fileID] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

func (h *Hub) ClientCount(fileID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[fileID])
}

// NotifyProgress cài đặt services.Notifier.
func (h *Hub) NotifyProgress(fileID string, ev services.ProgressEvent) {
	data, err := json.Marshal(ProgressUpdate{FileID: fileID, ProgressEvent: ev})
	if err != nil {
		h.log.Error("JSON marshal error", "error", err)
		return
	}
	h.Broadcast(fileID, data)
}

func (h *Hub) writePump(client *Client) {
	conn := client.Conn
	defer func() {
		conn.WriteMessage(websocket.CloseMessage, []byte{})
		conn.Close()
	}()
	for msg := range client.Send {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}
