package server

import (
	"context"
	"net/http"
	"time"

	"trend-pulse/src/interfaces"
	"trend-pulse/src/logger"
	"trend-pulse/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// RunHub is the connection loop. It owns the clients map and returns once
// ctx is cancelled, closing every connection.
func (s *Server) RunHub(ctx context.Context) {
	defer s.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.setConnections(len(s.clients))
			if err := client.Deliver(models.NewServerMessage(models.MsgInitialData, s.Provider.Snapshot())); err != nil {
				s.removeClient(client)
			}

		case client := <-s.unregister:
			s.removeClient(client)

		case evt := <-s.urgent:
			s.fanOut(models.NewServerMessage(models.MsgBroadcast, evt))

		case snapshot := <-s.updates:
			s.fanOut(models.NewServerMessage(models.MsgDashboardUpdate, snapshot))
		}
	}
}

// -----------------------------------------------------------------------------

func (s *Server) fanOut(msg models.MServerMessage) {
	for client := range s.clients {
		if err := client.Deliver(msg); err != nil {
			// Client too slow, disconnect to keep the loop moving
			client.log.WithError(err).Warning("Dropping connection")
			if s.Metrics != nil {
				s.Metrics.DeliveryFailures.Inc()
			}
			s.removeClient(client)
		}
	}
}

// -----------------------------------------------------------------------------

func (s *Server) removeClient(client *Client) {
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	client.close()
	s.Hub.RemoveHandle(client.id)
	s.setConnections(len(s.clients))
}

// -----------------------------------------------------------------------------

func (s *Server) closeAll() {
	s.doneOnce.Do(func() { close(s.done) })
	for client := range s.clients {
		s.removeClient(client)
	}
}

// -----------------------------------------------------------------------------

func (s *Server) disconnect(client *Client) {
	select {
	case s.unregister <- client:
	case <-s.done:
	}
}

// -----------------------------------------------------------------------------

// dropHandle closes the socket behind a handle whose delivery failed; the
// read pump then unregisters it.
func (s *Server) dropHandle(handle interfaces.IDeliveryHandle, err error) {
	if client, ok := handle.(*Client); ok && client.conn != nil {
		client.conn.Close()
	}
}

// -----------------------------------------------------------------------------

func (s *Server) setConnections(n int) {
	s.countMutex.Lock()
	s.connections = n
	s.countMutex.Unlock()
	if s.Metrics != nil {
		s.Metrics.Connections.Set(float64(n))
	}
}

// -----------------------------------------------------------------------------
// Outbound pushes
// -----------------------------------------------------------------------------

// BroadcastUrgent sends evt to every connection regardless of subscriptions.
func (s *Server) BroadcastUrgent(evt models.MStreamEvent) {
	select {
	case s.urgent <- evt:
	default:
		s.Logger.WithFields(logger.Fields{"event_id": evt.ID}).Warning("Urgent broadcast queue full, event dropped")
	}
}

// -----------------------------------------------------------------------------

// PushDashboard queues a DASHBOARD_UPDATE for every connection. When the
// queue is full the update is skipped; the next tick carries a newer one.
func (s *Server) PushDashboard(snapshot models.MDashboardSnapshot) {
	s.countMutex.Lock()
	s.lastUpdate = snapshot.LastUpdated
	s.countMutex.Unlock()

	select {
	case s.updates <- snapshot:
	default:
		s.Logger.Debug("Dashboard update skipped, queue full")
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin:      func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(s, conn)
	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}
	client.log.Debug("Client connected from %s", c.ClientIP())

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage dispatches one inbound frame. Malformed frames are
// logged and dropped; the connection stays open.
func (s *Server) HandleClientMessage(client *Client, raw []byte) {
	msg, err := decodeClientMessage(raw)
	if err != nil {
		s.rejectMessage(client, err)
		return
	}

	var reply models.MServerMessage
	switch msg.Type {
	case models.MsgSubscribe:
		if client.isClosed() {
			return
		}
		kind, _ := models.ParseEventKind(msg.StreamType)
		reply = models.NewServerMessage(models.MsgSubscribed, nil)
		reply.StreamType = string(kind)
		reply.SubscriberID = s.Hub.Subscribe(kind, client)

	case models.MsgUnsubscribe:
		ok := s.Hub.UnsubscribeFor(client.id, msg.SubscriberID)
		reply = models.NewServerMessage(models.MsgUnsubscribed, nil)
		reply.SubscriberID = msg.SubscriberID
		reply.Success = &ok

	case models.MsgGetDashboard:
		reply = models.NewServerMessage(models.MsgDashboardData, s.Provider.Snapshot())

	case models.MsgAcknowledgeAlert:
		ok := s.Provider.AcknowledgeAlert(msg.AlertID)
		reply = models.NewServerMessage(models.MsgAlertAcknowledged, nil)
		reply.AlertID = msg.AlertID
		reply.Success = &ok
	}

	if err := client.Deliver(reply); err != nil {
		client.log.WithError(err).Warning("Reply not delivered")
		// removeClient may already have run; drop what this frame registered.
		s.Hub.RemoveHandle(client.id)
		s.dropHandle(client, err)
	}
}

// -----------------------------------------------------------------------------

func (s *Server) rejectMessage(client *Client, err error) {
	if s.Metrics != nil {
		s.Metrics.MalformedMessages.Inc()
	}
	client.log.WithError(err).Warning("Dropped client message")
}
