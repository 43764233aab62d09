package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"Bt1QPlay/core/player"
	"Bt1QPlay/logger"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stateMessage 是推送给组件的状态帧
type stateMessage struct {
	Type      string               `json:"type"`
	State     player.PlaybackState `json:"state"`
	Timestamp int64                `json:"timestamp"`
}

// wsClient 是一个已连接的播放组件
type wsClient struct {
	hub  *PlayerHub
	conn *websocket.Conn
	send chan []byte
}

// PlayerHub 管理订阅状态推送的 WebSocket 组件连接。
// 会话的每次状态迁移（含时间步进）都会广播一帧快照，
// 保证组件在下一次渲染前拿到最新状态。
type PlayerHub struct {
	mu         sync.RWMutex
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
	done       chan struct{}
}

// NewPlayerHub 创建推送中心
func NewPlayerHub() *PlayerHub {
	return &PlayerHub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run 启动推送主循环
func (h *PlayerHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*wsClient, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- msg:
				default:
					// 发送缓冲区满，视为失联
					h.removeClient(client)
				}
			}

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[*wsClient]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Stop 停止推送并断开所有连接
func (h *PlayerHub) Stop() {
	close(h.done)
}

func (h *PlayerHub) removeClient(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// BroadcastState 向所有组件推送一帧状态快照
func (h *PlayerHub) BroadcastState(st player.PlaybackState) {
	msg := stateMessage{
		Type:      "state",
		State:     st,
		Timestamp: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("failed to marshal state frame", logger.ErrorField(err))
		return
	}

	select {
	case h.broadcast <- data:
	default:
		// 推送积压时丢弃旧帧，组件只关心最新状态
	}
}

// HandlePlayerWS 升级连接并接入推送中心
func (h *PlayerHub) HandlePlayerWS(session *player.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("websocket upgrade failed", logger.ErrorField(err))
			return
		}

		client := &wsClient{
			hub:  h,
			conn: conn,
			send: make(chan []byte, 16),
		}
		h.register <- client

		// 新连接立刻收到当前状态
		h.BroadcastState(session.Snapshot())

		go client.writePump()
		go client.readPump()
	}
}

// readPump 只处理关闭与心跳，组件不通过 WebSocket 发指令
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error", logger.ErrorField(err))
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
