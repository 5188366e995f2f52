package services

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ratacueva-backend/internal/models"
)

// TrackingFeed fans tracking events out to websocket subscribers, grouped by
// shipment. Subscribers that fail a write are dropped; a slow client never
// blocks the publisher.
type TrackingFeed struct {
	mu          sync.RWMutex
	subscribers map[string]map[*websocket.Conn]bool
	logger      *zap.Logger
}

// NewTrackingFeed creates an empty feed hub
func NewTrackingFeed(logger *zap.Logger) *TrackingFeed {
	return &TrackingFeed{
		subscribers: make(map[string]map[*websocket.Conn]bool),
		logger:      logger,
	}
}

// Subscribe registers a connection for a shipment's events
func (f *TrackingFeed) Subscribe(shipmentID string, conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribers[shipmentID] == nil {
		f.subscribers[shipmentID] = make(map[*websocket.Conn]bool)
	}
	f.subscribers[shipmentID][conn] = true
	f.logger.Debug("tracking feed subscriber added",
		zap.String("shipmentId", shipmentID))
}

// Unsubscribe removes a connection. Safe to call for connections that were
// never subscribed.
func (f *TrackingFeed) Unsubscribe(shipmentID string, conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conns, ok := f.subscribers[shipmentID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(f.subscribers, shipmentID)
		}
	}
}

// Publish sends a tracking event to every subscriber of the shipment
func (f *TrackingFeed) Publish(shipmentID string, event models.TrackingEvent) {
	f.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(f.subscribers[shipmentID]))
	for conn := range f.subscribers[shipmentID] {
		conns = append(conns, conn)
	}
	f.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			f.logger.Debug("dropping tracking feed subscriber",
				zap.String("shipmentId", shipmentID),
				zap.Error(err))
			conn.Close()
			f.Unsubscribe(shipmentID, conn)
		}
	}
}
