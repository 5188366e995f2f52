package services

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

type ShippingServiceTestSuite struct {
	suite.Suite
	db       *sql.DB
	shipping *ShippingService
	orderID  string
}

func (s *ShippingServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.shipping = NewShippingService(s.db, nil, NewTrackingFeed(testLogger()), testLogger())

	user := seedUser(s.T(), s.db, models.RoleClient)
	s.orderID = seedOrder(s.T(), s.db, user.ID)
}

func (s *ShippingServiceTestSuite) create() *models.Shipment {
	shipment, err := s.shipping.CreateShipment(&models.ShipmentCreation{
		OrderID:          s.orderID,
		ShippingAddress:  testAddress(),
		Items:            []models.ShipmentItem{{ProductID: "p1", Quantity: 1}},
		ShippingProvider: "Estafeta",
	})
	s.Require().NoError(err)
	return shipment
}

func (s *ShippingServiceTestSuite) TestCreateShipmentSeedsTrackingLog() {
	shipment := s.create()

	s.True(strings.HasPrefix(shipment.TrackingNumber, "RC-"))
	s.Equal(models.ShipmentStatusPendingPickup, shipment.CurrentStatus)
	s.Require().Len(shipment.TrackingEvents, 1)
	s.Equal(models.ShipmentStatusPendingPickup, shipment.TrackingEvents[0].Status)

	// The order picks up the tracking reference
	var tracking string
	s.Require().NoError(s.db.QueryRow(
		"SELECT tracking_number FROM orders WHERE id = ?", s.orderID).Scan(&tracking))
	s.Equal(shipment.TrackingNumber, tracking)
}

func (s *ShippingServiceTestSuite) TestOneShipmentPerOrder() {
	s.create()

	_, err := s.shipping.CreateShipment(&models.ShipmentCreation{
		OrderID:          s.orderID,
		ShippingAddress:  testAddress(),
		Items:            []models.ShipmentItem{{ProductID: "p1", Quantity: 1}},
		ShippingProvider: "DHL",
	})
	s.True(apperrors.IsKind(err, apperrors.KindConflict))
}

func (s *ShippingServiceTestSuite) TestStatusUpdatesAppendEvents() {
	shipment := s.create()

	location := "CEDIS CDMX"
	updated, err := s.shipping.UpdateShipmentStatus(shipment.ID, &models.ShipmentStatusUpdate{
		NewStatus: models.ShipmentStatusInTransit,
		Location:  &location,
	})
	s.Require().NoError(err)
	s.Equal(models.ShipmentStatusInTransit, updated.CurrentStatus)
	s.Len(updated.TrackingEvents, 2)
}

func (s *ShippingServiceTestSuite) TestSameStatusIsNoOp() {
	shipment := s.create()

	updated, err := s.shipping.UpdateShipmentStatus(shipment.ID, &models.ShipmentStatusUpdate{
		NewStatus: models.ShipmentStatusPendingPickup,
	})
	s.Require().NoError(err)
	s.Len(updated.TrackingEvents, 1, "repeating the current status must not append an event")
}

func (s *ShippingServiceTestSuite) TestTerminalShipmentRejectsUpdates() {
	shipment := s.create()

	_, err := s.shipping.UpdateShipmentStatus(shipment.ID, &models.ShipmentStatusUpdate{
		NewStatus: models.ShipmentStatusDelivered,
	})
	s.Require().NoError(err)

	_, err = s.shipping.UpdateShipmentStatus(shipment.ID, &models.ShipmentStatusUpdate{
		NewStatus: models.ShipmentStatusInTransit,
	})
	s.True(apperrors.IsKind(err, apperrors.KindConflict))
}

func (s *ShippingServiceTestSuite) TestDeliveredShipmentMarksShippedOrderDelivered() {
	// Order must be in shipped state for delivery to propagate
	_, err := s.db.Exec("UPDATE orders SET order_status = 'shipped' WHERE id = ?", s.orderID)
	s.Require().NoError(err)

	shipment := s.create()
	_, err = s.shipping.UpdateShipmentStatus(shipment.ID, &models.ShipmentStatusUpdate{
		NewStatus: models.ShipmentStatusDelivered,
	})
	s.Require().NoError(err)

	var orderStatus string
	var deliveredAt sql.NullTime
	s.Require().NoError(s.db.QueryRow(
		"SELECT order_status, delivered_at FROM orders WHERE id = ?", s.orderID,
	).Scan(&orderStatus, &deliveredAt))
	s.Equal("delivered", orderStatus)
	s.True(deliveredAt.Valid)
}

func (s *ShippingServiceTestSuite) TestTrackByNumber() {
	shipment := s.create()

	found, err := s.shipping.GetShipmentByTracking(shipment.TrackingNumber)
	s.Require().NoError(err)
	s.Equal(shipment.ID, found.ID)

	_, err = s.shipping.GetShipmentByTracking("RC-0-000000")
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *ShippingServiceTestSuite) TestListShipmentsFiltersByStatus() {
	s.create()

	status := models.ShipmentStatusPendingPickup
	shipments, total, err := s.shipping.ListShipments(models.ShipmentFilters{Status: &status}, 20, 0)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Len(shipments, 1)

	delivered := models.ShipmentStatusDelivered
	_, total, err = s.shipping.ListShipments(models.ShipmentFilters{Status: &delivered}, 20, 0)
	s.Require().NoError(err)
	s.Equal(0, total)
}

func TestShippingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ShippingServiceTestSuite))
}
