package services

import (
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

// ShippingService simulates a carrier: one shipment per order with an
// append-only tracking log. Status changes are pushed to the live feed.
type ShippingService struct {
	db     *sql.DB
	emails *EmailService
	feed   *TrackingFeed
	logger *zap.Logger
}

// NewShippingService creates a new shipping service
func NewShippingService(db *sql.DB, emails *EmailService, feed *TrackingFeed, logger *zap.Logger) *ShippingService {
	return &ShippingService{db: db, emails: emails, feed: feed, logger: logger}
}

// CreateShipment registers a shipment for an order, generates its tracking
// number and seeds the tracking log with a pending_pickup event. One shipment
// per order; a second attempt is a Conflict.
func (s *ShippingService) CreateShipment(creation *models.ShipmentCreation) (*models.Shipment, error) {
	var orderUserID string
	err := s.db.QueryRow("SELECT user_id FROM orders WHERE id = ?", creation.OrderID).Scan(&orderUserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("Orden no encontrada.")
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get order: %w", err))
	}

	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM shipments WHERE order_id = ?", creation.OrderID).Scan(&exists); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to check shipment: %w", err))
	}
	if exists > 0 {
		return nil, apperrors.Conflict("La orden ya tiene un envío registrado.")
	}

	addressJSON, err := creation.ShippingAddress.ToJSON()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	now := time.Now().UTC()
	shipment := &models.Shipment{
		ID:                    uuid.New().String(),
		OrderID:               creation.OrderID,
		TrackingNumber:        generateTrackingNumber(),
		ShippingProvider:      creation.ShippingProvider,
		CurrentStatus:         models.ShipmentStatusPendingPickup,
		ShippingAddress:       creation.ShippingAddress,
		Items:                 creation.Items,
		EstimatedDeliveryDate: creation.EstimatedDeliveryDate,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO shipments (id, order_id, tracking_number, shipping_provider,
			current_status, shipping_address, estimated_delivery_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		shipment.ID, shipment.OrderID, shipment.TrackingNumber,
		shipment.ShippingProvider, shipment.CurrentStatus, addressJSON,
		shipment.EstimatedDeliveryDate, shipment.CreatedAt, shipment.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, apperrors.Conflict("La orden ya tiene un envío registrado.")
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create shipment: %w", err))
	}

	for _, item := range shipment.Items {
		_, err = tx.Exec(
			"INSERT INTO shipment_items (shipment_id, product_id, quantity) VALUES (?, ?, ?)",
			shipment.ID, item.ProductID, item.Quantity,
		)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to create shipment item: %w", err))
		}
	}

	notes := "Shipment created"
	event := models.TrackingEvent{
		ID:         uuid.New().String(),
		ShipmentID: shipment.ID,
		Status:     models.ShipmentStatusPendingPickup,
		Timestamp:  now,
		Notes:      &notes,
	}
	if err := insertTrackingEvent(tx, event); err != nil {
		return nil, err
	}
	shipment.TrackingEvents = []models.TrackingEvent{event}

	_, err = tx.Exec(
		"UPDATE orders SET tracking_number = ?, shipping_provider = ?, updated_at = ? WHERE id = ?",
		shipment.TrackingNumber, shipment.ShippingProvider, now, shipment.OrderID,
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to link shipment to order: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to commit shipment: %w", err))
	}

	s.logger.Info("shipment created",
		zap.String("shipmentId", shipment.ID),
		zap.String("orderId", shipment.OrderID),
		zap.String("trackingNumber", shipment.TrackingNumber))

	if s.emails != nil {
		s.emails.SendShipmentNotification(orderUserID, shipment.TrackingNumber, shipment.ShippingProvider)
	}
	return shipment, nil
}

// UpdateShipmentStatus appends a tracking event and moves the shipment to the
// new status. Terminal shipments reject updates; setting the current status
// again is a logged no-op. A delivered shipment marks its order delivered.
func (s *ShippingService) UpdateShipmentStatus(shipmentID string, update *models.ShipmentStatusUpdate) (*models.Shipment, error) {
	if !models.IsValidShipmentStatus(update.NewStatus) {
		return nil, apperrors.BadRequest("Estado de envío inválido: %s.", update.NewStatus)
	}

	shipment, err := s.GetShipmentByID(shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.CurrentStatus.IsTerminal() {
		return nil, apperrors.Conflict(
			"El envío en estado %s no admite más actualizaciones.", shipment.CurrentStatus)
	}
	if shipment.CurrentStatus == update.NewStatus {
		s.logger.Info("shipment status unchanged, no event recorded",
			zap.String("shipmentId", shipmentID),
			zap.String("status", string(update.NewStatus)))
		return shipment, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	event := models.TrackingEvent{
		ID:         uuid.New().String(),
		ShipmentID: shipmentID,
		Status:     update.NewStatus,
		Timestamp:  now,
		Location:   update.Location,
		Notes:      update.Notes,
	}
	if err := insertTrackingEvent(tx, event); err != nil {
		return nil, err
	}

	_, err = tx.Exec(
		"UPDATE shipments SET current_status = ?, updated_at = ? WHERE id = ?",
		update.NewStatus, now, shipmentID,
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update shipment: %w", err))
	}

	if update.NewStatus == models.ShipmentStatusDelivered {
		_, err = tx.Exec(
			`UPDATE orders SET shipping_status = ?, order_status = ?,
				delivered_at = ?, updated_at = ?
			WHERE id = ? AND order_status = ?`,
			models.ShippingStatusDelivered, models.OrderStatusDelivered,
			now, now, shipment.OrderID, models.OrderStatusShipped,
		)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to mark order delivered: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to commit status update: %w", err))
	}

	s.logger.Info("shipment status updated",
		zap.String("shipmentId", shipmentID),
		zap.String("from", string(shipment.CurrentStatus)),
		zap.String("to", string(update.NewStatus)))

	if s.feed != nil {
		s.feed.Publish(shipmentID, event)
	}

	shipment.CurrentStatus = update.NewStatus
	shipment.UpdatedAt = now
	shipment.TrackingEvents = append(shipment.TrackingEvents, event)
	return shipment, nil
}

// GetShipmentByID retrieves a shipment with its items and tracking log
func (s *ShippingService) GetShipmentByID(shipmentID string) (*models.Shipment, error) {
	return s.getShipment("id = ?", shipmentID)
}

// GetShipmentByTracking retrieves a shipment by tracking number. Used by the
// public tracking endpoint.
func (s *ShippingService) GetShipmentByTracking(trackingNumber string) (*models.Shipment, error) {
	return s.getShipment("tracking_number = ?", trackingNumber)
}

// GetShipmentByOrder retrieves the shipment registered for an order
func (s *ShippingService) GetShipmentByOrder(orderID string) (*models.Shipment, error) {
	return s.getShipment("order_id = ?", orderID)
}

// ListShipments retrieves shipments with filters and pagination
func (s *ShippingService) ListShipments(filters models.ShipmentFilters, limit, offset int) ([]*models.Shipment, int, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filters.Status != nil {
		where += " AND current_status = ?"
		args = append(args, *filters.Status)
	}
	if filters.OrderID != nil {
		where += " AND order_id = ?"
		args = append(args, *filters.OrderID)
	}
	if filters.Provider != nil {
		where += " AND shipping_provider = ?"
		args = append(args, *filters.Provider)
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM shipments"+where, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("failed to count shipments: %w", err))
	}

	query := `SELECT id, order_id, tracking_number, shipping_provider,
		current_status, shipping_address, estimated_delivery_date, created_at, updated_at
		FROM shipments` + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("failed to query shipments: %w", err))
	}
	defer rows.Close()

	var shipments []*models.Shipment
	for rows.Next() {
		shipment, err := scanShipment(rows)
		if err != nil {
			return nil, 0, apperrors.Internal(err)
		}
		shipments = append(shipments, shipment)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("error iterating shipments: %w", err))
	}

	for _, shipment := range shipments {
		if err := s.loadDetails(shipment); err != nil {
			return nil, 0, err
		}
	}
	return shipments, total, nil
}

func (s *ShippingService) getShipment(condition string, arg interface{}) (*models.Shipment, error) {
	query := `SELECT id, order_id, tracking_number, shipping_provider,
		current_status, shipping_address, estimated_delivery_date, created_at, updated_at
		FROM shipments WHERE ` + condition
	shipment, err := scanShipment(s.db.QueryRow(query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("Envío no encontrado.")
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get shipment: %w", err))
	}
	if err := s.loadDetails(shipment); err != nil {
		return nil, err
	}
	return shipment, nil
}

func (s *ShippingService) loadDetails(shipment *models.Shipment) error {
	itemRows, err := s.db.Query(
		"SELECT product_id, quantity FROM shipment_items WHERE shipment_id = ?", shipment.ID)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to query shipment items: %w", err))
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var item models.ShipmentItem
		if err := itemRows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return apperrors.Internal(fmt.Errorf("failed to scan shipment item: %w", err))
		}
		shipment.Items = append(shipment.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return apperrors.Internal(err)
	}

	eventRows, err := s.db.Query(
		`SELECT id, shipment_id, status, timestamp, location, notes
		FROM tracking_events WHERE shipment_id = ? ORDER BY timestamp ASC`, shipment.ID)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to query tracking events: %w", err))
	}
	defer eventRows.Close()
	for eventRows.Next() {
		var event models.TrackingEvent
		err := eventRows.Scan(&event.ID, &event.ShipmentID, &event.Status,
			&event.Timestamp, &event.Location, &event.Notes)
		if err != nil {
			return apperrors.Internal(fmt.Errorf("failed to scan tracking event: %w", err))
		}
		shipment.TrackingEvents = append(shipment.TrackingEvents, event)
	}
	return eventRows.Err()
}

func scanShipment(row rowScanner) (*models.Shipment, error) {
	shipment := &models.Shipment{}
	var addressJSON string
	err := row.Scan(&shipment.ID, &shipment.OrderID, &shipment.TrackingNumber,
		&shipment.ShippingProvider, &shipment.CurrentStatus, &addressJSON,
		&shipment.EstimatedDeliveryDate, &shipment.CreatedAt, &shipment.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if shipment.ShippingAddress, err = models.OrderAddressFromJSON(addressJSON); err != nil {
		return nil, fmt.Errorf("failed to parse shipment address: %w", err)
	}
	return shipment, nil
}

func insertTrackingEvent(tx *sql.Tx, event models.TrackingEvent) error {
	_, err := tx.Exec(
		"INSERT INTO tracking_events (id, shipment_id, status, timestamp, location, notes) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.ShipmentID, event.Status, event.Timestamp, event.Location, event.Notes,
	)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to record tracking event: %w", err))
	}
	return nil
}

func generateTrackingNumber() string {
	return fmt.Sprintf("RC-%d-%06d", time.Now().Unix(), rand.Intn(1000000))
}
