package websocket

import (
	"sync"

	"github.com/ikkim/dongnetalk-backend/pkg/logger"
)

// Client WebSocket 클라이언트
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Send   chan []byte
}

// Hub WebSocket 연결 관리자
// 새 쪽지를 접속 중인 수신자에게 푸시함
type Hub struct {
	// 등록된 클라이언트들 (UserID -> []*Client - 멀티 디바이스 지원)
	clients map[uint][]*Client

	// 클라이언트 등록
	register chan *Client

	// 클라이언트 등록 해제
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
	}
}

// Run Hub 실행
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// 멀티 디바이스 지원: 클라이언트 리스트에 추가
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": len(h.clients[client.UserID]),
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if clientList, ok := h.clients[client.UserID]; ok {
				// 해당 클라이언트만 리스트에서 제거
				newList := make([]*Client, 0, len(clientList))
				for _, c := range clientList {
					if c != client {
						newList = append(newList, c)
					}
				}

				if len(newList) == 0 {
					delete(h.clients, client.UserID)
				} else {
					h.clients[client.UserID] = newList
				}

				close(client.Send)
			}
			h.mu.Unlock()
			logger.Info("WebSocket client unregistered", map[string]interface{}{
				"user_id": client.UserID,
			})
		}
	}
}

// Register 클라이언트 등록
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 클라이언트 등록 해제
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SendToUser 특정 사용자의 모든 세션으로 전송
// 수신자가 접속 중이 아니면 조용히 무시됨 (best-effort)
func (h *Hub) SendToUser(userID uint, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clientList, ok := h.clients[userID]
	if !ok {
		return
	}

	for _, client := range clientList {
		select {
		case client.Send <- payload:
			// 전송 성공
		default:
			// Send 채널이 막혀있음 - 비동기로 정리
			go h.Unregister(client)
			logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
				"user_id": userID,
			})
		}
	}
}

// ConnectedUserCount 현재 접속 중인 사용자 수
func (h *Hub) ConnectedUserCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
