package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Vandanarajput/PosAPP/internal/printer"
)

// WebSocket message types
const (
	EventPrint        = "print"
	EventCommand      = "command"
	EventJobFinished  = "job_finished"
	EventRouteNoMatch = "route_nomatch"
	EventResponse     = "response"
	EventError        = "error"
)

const writeWait = 10 * time.Second

// WSMessage represents a WebSocket message
type WSMessage struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
	once   sync.Once
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("ws.upgrade", "error", err)
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan WSMessage, 256),
		server: s,
	}
	s.addClient(client)
	s.log.Info("ws.connected", "remote", conn.RemoteAddr().String())

	go client.readPump()
	go client.writePump()
}

func (s *Server) addClient(c *WSClient) {
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()
}

func (s *Server) removeClient(c *WSClient) {
	s.clientsMu.Lock()
	delete(s.clients, c)
	s.clientsMu.Unlock()
	c.close()
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	clients := s.clients
	s.clients = make(map[*WSClient]struct{})
	s.clientsMu.Unlock()

	for c := range clients {
		c.close()
	}
}

// ClientCount returns the number of connected websocket clients
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (c *WSClient) close() {
	c.once.Do(func() { close(c.send) })
}

func (c *WSClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			c.server.log.Debug("ws.write", "error", err)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (c *WSClient) readPump() {
	defer func() {
		c.server.removeClient(c)
		c.conn.Close()
		c.server.log.Info("ws.disconnected")
	}()

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.log.Warn("ws.read", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

func (c *WSClient) handleMessage(msg *WSMessage) {
	switch msg.Event {
	case EventPrint:
		c.handlePrintEvent(msg.Data)
	case EventCommand:
		cmd, _ := msg.Data["command"].(string)
		res := c.server.executor.Execute(context.Background(), cmd)
		if !res.Success {
			c.sendError(res.Error)
			return
		}
		data := map[string]any{"success": true, "message": res.Message}
		for k, v := range res.Data {
			data[k] = v
		}
		c.sendResponse(data)
	default:
		c.sendError(fmt.Sprintf("unknown event: %s", msg.Event))
	}
}

func (c *WSClient) handlePrintEvent(data map[string]any) {
	body, err := json.Marshal(data)
	if err != nil {
		c.sendError(fmt.Sprintf("invalid print event: %v", err))
		return
	}
	req, err := decodePrintRequest(body)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	doc, err := req.document(context.Background())
	if err != nil {
		c.sendError(err.Error())
		return
	}

	jobID, err := c.server.manager.Submit(doc, "websocket")
	if err != nil {
		c.sendError(fmt.Sprintf("invalid receipt: %v", err))
		return
	}
	c.sendResponse(map[string]any{"success": true, "job_id": jobID})
}

// deliver queues msg without blocking; a full or closed client is skipped
func (c *WSClient) deliver(msg WSMessage) {
	defer func() { recover() }()
	select {
	case c.send <- msg:
	default:
	}
}

func (c *WSClient) sendResponse(data map[string]any) {
	c.deliver(WSMessage{Event: EventResponse, Data: data})
}

func (c *WSClient) sendError(message string) {
	c.deliver(WSMessage{Event: EventError, Data: map[string]any{"error": message}})
}

// Broadcast sends an event to every connected client
func (s *Server) Broadcast(event string, data map[string]any) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	msg := WSMessage{Event: event, Data: data}
	for client := range s.clients {
		client.deliver(msg)
	}
}

// BroadcastJobFinished announces a finished job, and a routing miss when
// no profile matched its hints
func (s *Server) BroadcastJobFinished(j printer.Job) {
	s.Broadcast(EventJobFinished, map[string]any{
		"id":      j.ID,
		"status":  j.Status,
		"error":   j.Error,
		"summary": j.Summary,
	})
	if j.Summary.NoMatch {
		s.Broadcast(EventRouteNoMatch, map[string]any{"id": j.ID, "error": j.Error})
	}
}
