package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

// OrderService handles the order lifecycle. Order creation and cancellation
// run inside a single transaction so stock and order state never diverge.
type OrderService struct {
	db               *sql.DB
	payments         *PaymentService
	emails           *EmailService
	shipping         *ShippingService
	shippingProvider string
	logger           *zap.Logger
}

// NewOrderService creates a new order service. Email and shipping are
// optional collaborators: nil skips the fire-and-forget steps.
func NewOrderService(db *sql.DB, payments *PaymentService, emails *EmailService, shipping *ShippingService, shippingProvider string, logger *zap.Logger) *OrderService {
	return &OrderService{
		db:               db,
		payments:         payments,
		emails:           emails,
		shipping:         shipping,
		shippingProvider: shippingProvider,
		logger:           logger,
	}
}

const orderColumns = `id, user_id, subtotal, shipping_cost, tax_amount, discount_amount,
	total_amount, currency, order_status, payment_status, shipping_status,
	shipping_address, billing_address, payment_type, payment_transaction_id,
	tracking_number, shipping_provider, estimated_delivery_date, notes,
	shipped_at, delivered_at, cancelled_at, refunded_at, created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}
	var shippingJSON, billingJSON string
	var transactionID sql.NullString

	err := row.Scan(
		&order.ID, &order.UserID, &order.Subtotal, &order.ShippingCost,
		&order.TaxAmount, &order.DiscountAmount, &order.TotalAmount,
		&order.Currency, &order.OrderStatus, &order.PaymentStatus,
		&order.ShippingStatus, &shippingJSON, &billingJSON,
		&order.PaymentDetails.Type, &transactionID,
		&order.TrackingNumber, &order.ShippingProvider,
		&order.EstimatedDeliveryDate, &order.Notes,
		&order.ShippedAt, &order.DeliveredAt, &order.CancelledAt,
		&order.RefundedAt, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if order.ShippingAddress, err = models.OrderAddressFromJSON(shippingJSON); err != nil {
		return nil, fmt.Errorf("failed to parse shipping address: %w", err)
	}
	if order.BillingAddress, err = models.OrderAddressFromJSON(billingJSON); err != nil {
		return nil, fmt.Errorf("failed to parse billing address: %w", err)
	}
	if transactionID.Valid {
		order.PaymentDetails.TransactionID = transactionID.String
	}
	return order, nil
}

// CreateOrder validates stock, snapshots prices, decrements inventory,
// charges the payment and records the order inside one transaction.
// All-or-nothing: any failing line or a declined charge rolls everything
// back, stock included. Shipment creation and the confirmation email run
// after commit, best effort.
func (s *OrderService) CreateOrder(userID string, creation *models.OrderCreation) (*models.Order, error) {
	if !models.IsValidPaymentType(creation.PaymentMethod.Type) {
		return nil, apperrors.BadRequest("Método de pago inválido.")
	}

	billing := creation.ShippingAddress
	if creation.BillingAddress != nil {
		billing = *creation.BillingAddress
	}

	shippingJSON, err := creation.ShippingAddress.ToJSON()
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	billingJSON, err := billing.ToJSON()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	order := &models.Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		Currency:        "MXN",
		OrderStatus:     models.OrderStatusProcessing,
		PaymentStatus:   models.PaymentStatusPaid,
		ShippingStatus:  models.ShippingStatusPending,
		ShippingAddress: creation.ShippingAddress,
		BillingAddress:  billing,
		ShippingCost:    creation.ShippingCost,
		TaxAmount:       creation.TaxAmount,
		DiscountAmount:  creation.DiscountAmount,
		PaymentDetails:  models.PaymentDetails{Type: creation.PaymentMethod.Type},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, input := range creation.Items {
		var product models.Product
		var imagesJSON string
		err := tx.QueryRow(
			"SELECT id, name, price, stock, discount_percentage, images FROM products WHERE id = ?",
			input.ProductID,
		).Scan(&product.ID, &product.Name, &product.Price, &product.Stock,
			&product.DiscountPercentage, &imagesJSON)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, apperrors.BadRequest("Producto %s no encontrado o no disponible.", input.ProductID)
			}
			return nil, apperrors.Internal(fmt.Errorf("failed to get product: %w", err))
		}
		if err := product.SetImagesFromJSON(imagesJSON); err != nil {
			s.logger.Warn("failed to parse product images",
				zap.String("productId", product.ID),
				zap.Error(err))
		}

		if product.Stock < input.Quantity {
			return nil, apperrors.Conflict(
				"Stock insuficiente para %s. Solo quedan %d unidades.",
				product.Name, product.Stock)
		}

		// The stock >= guard makes a concurrent oversell surface as Conflict
		// instead of silently going negative.
		result, err := tx.Exec(
			"UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?",
			input.Quantity, now, input.ProductID, input.Quantity,
		)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to decrement stock: %w", err))
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return nil, apperrors.Conflict(
				"Stock insuficiente para %s. Intenta de nuevo.", product.Name)
		}

		item := models.OrderItem{
			ID:                        uuid.New().String(),
			OrderID:                   order.ID,
			ProductID:                 product.ID,
			Name:                      product.Name,
			PriceAtPurchase:           product.EffectivePrice(),
			Quantity:                  input.Quantity,
			SelectedVariation:         input.SelectedVariation,
			ImageURL:                  product.FirstImage(),
			DiscountPercentageApplied: product.DiscountPercentage,
		}
		order.Items = append(order.Items, item)
		order.Subtotal += item.LineTotal()
	}

	order.TotalAmount = order.Subtotal + order.ShippingCost + order.TaxAmount - order.DiscountAmount
	if order.TotalAmount < 0 {
		return nil, apperrors.BadRequest("El descuento no puede exceder el total de la orden.")
	}

	// Charge before anything is persisted: a declined payment rolls back the
	// stock decrements with the rest of the transaction.
	transactionID, err := s.payments.Charge(order.ID, order.TotalAmount, order.Currency, creation.PaymentMethod)
	if err != nil {
		return nil, err
	}
	order.PaymentDetails.TransactionID = transactionID

	query := `
		INSERT INTO orders (
			id, user_id, subtotal, shipping_cost, tax_amount, discount_amount,
			total_amount, currency, order_status, payment_status, shipping_status,
			shipping_address, billing_address, payment_type,
			payment_transaction_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(query,
		order.ID, order.UserID, order.Subtotal, order.ShippingCost,
		order.TaxAmount, order.DiscountAmount, order.TotalAmount, order.Currency,
		order.OrderStatus, order.PaymentStatus, order.ShippingStatus,
		shippingJSON, billingJSON, order.PaymentDetails.Type,
		order.PaymentDetails.TransactionID, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to create order: %w", err))
	}

	for _, item := range order.Items {
		_, err = tx.Exec(
			`INSERT INTO order_items (id, order_id, product_id, name, price_at_purchase,
				quantity, selected_variation, image_url, discount_percentage_applied)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.OrderID, item.ProductID, item.Name, item.PriceAtPurchase,
			item.Quantity, item.SelectedVariation, item.ImageURL,
			item.DiscountPercentageApplied,
		)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to create order item: %w", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to commit order: %w", err))
	}

	s.logger.Info("order created",
		zap.String("orderId", order.ID),
		zap.String("userId", userID),
		zap.Float64("total", order.TotalAmount))

	s.removePurchasedFromCart(userID, creation.Items)
	s.createShipmentForOrder(order)
	if s.emails != nil {
		s.emails.SendOrderConfirmation(userID, order)
	}
	return order, nil
}

// createShipmentForOrder registers the carrier shipment after checkout. Best
// effort: the order stands even if the carrier registration fails.
func (s *OrderService) createShipmentForOrder(order *models.Order) {
	if s.shipping == nil {
		return
	}
	items := make([]models.ShipmentItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, models.ShipmentItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	_, err := s.shipping.CreateShipment(&models.ShipmentCreation{
		OrderID:          order.ID,
		ShippingAddress:  order.ShippingAddress,
		Items:            items,
		ShippingProvider: s.shippingProvider,
	})
	if err != nil {
		s.logger.Warn("shipment registration failed, needs manual follow-up",
			zap.String("orderId", order.ID),
			zap.Error(err))
	}
}

// removePurchasedFromCart drops the purchased lines from the user's cart.
// Best effort: the order already exists, a leftover cart line is harmless.
func (s *OrderService) removePurchasedFromCart(userID string, items []models.OrderItemInput) {
	var cartID string
	err := s.db.QueryRow("SELECT id FROM carts WHERE user_id = ?", userID).Scan(&cartID)
	if err != nil {
		return
	}
	for _, item := range items {
		_, err := s.db.Exec(
			"DELETE FROM cart_items WHERE cart_id = ? AND product_id = ? AND selected_variation = ?",
			cartID, item.ProductID, item.SelectedVariation,
		)
		if err != nil {
			s.logger.Warn("failed to remove purchased item from cart",
				zap.String("userId", userID),
				zap.String("productId", item.ProductID),
				zap.Error(err))
		}
	}
}

// GetOrderByID retrieves an order. Staff can read any order; a client asking
// for someone else's order gets NotFound, never Forbidden, so order ids don't
// leak existence.
func (s *OrderService) GetOrderByID(orderID, requesterID string, requesterRole models.Role) (*models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE id = ?"
	order, err := scanOrder(s.db.QueryRow(query, orderID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("Orden no encontrada.")
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get order: %w", err))
	}
	if !requesterRole.IsStaff() && order.UserID != requesterID {
		return nil, apperrors.NotFound("Orden no encontrada.")
	}
	if err := s.loadItems(order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrdersForUser retrieves the caller's own orders, newest first
func (s *OrderService) ListOrdersForUser(userID string, limit, offset int) ([]*models.Order, int, error) {
	return s.listOrders(" WHERE user_id = ?", []interface{}{userID}, limit, offset)
}

// ListOrders retrieves orders with staff filters
func (s *OrderService) ListOrders(filters models.OrderFilters, limit, offset int) ([]*models.Order, int, error) {
	where := " WHERE 1=1"
	var args []interface{}
	if filters.Status != nil {
		where += " AND order_status = ?"
		args = append(args, *filters.Status)
	}
	if filters.UserID != nil {
		where += " AND user_id = ?"
		args = append(args, *filters.UserID)
	}
	return s.listOrders(where, args, limit, offset)
}

func (s *OrderService) listOrders(where string, args []interface{}, limit, offset int) ([]*models.Order, int, error) {
	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("failed to count orders: %w", err))
	}

	query := "SELECT " + orderColumns + " FROM orders" + where +
		" ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("failed to query orders: %w", err))
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, apperrors.Internal(fmt.Errorf("failed to scan order: %w", err))
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("error iterating orders: %w", err))
	}

	for _, order := range orders {
		if err := s.loadItems(order); err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

func (s *OrderService) loadItems(order *models.Order) error {
	rows, err := s.db.Query(
		`SELECT id, order_id, product_id, name, price_at_purchase, quantity,
			selected_variation, image_url, discount_percentage_applied
		FROM order_items WHERE order_id = ?`, order.ID)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to query order items: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name,
			&item.PriceAtPurchase, &item.Quantity, &item.SelectedVariation,
			&item.ImageURL, &item.DiscountPercentageApplied)
		if err != nil {
			return apperrors.Internal(fmt.Errorf("failed to scan order item: %w", err))
		}
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

// CancelOrder cancels an order and restores its stock in one transaction.
// Clients can only cancel their own orders; staff can cancel any. Orders
// already shipped or in a terminal state cannot be cancelled.
func (s *OrderService) CancelOrder(orderID, requesterID string, requesterRole models.Role) (*models.Order, error) {
	order, err := s.getOrderAnyOwner(orderID)
	if err != nil {
		return nil, err
	}
	if !requesterRole.IsStaff() && order.UserID != requesterID {
		return nil, apperrors.Forbidden("No tienes permiso para cancelar esta orden.")
	}
	if !order.OrderStatus.CanCancel() {
		return nil, apperrors.BadRequest(
			"La orden en estado %s no puede ser cancelada.", order.OrderStatus)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, item := range order.Items {
		_, err := tx.Exec(
			"UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?",
			item.Quantity, now, item.ProductID,
		)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to restore stock: %w", err))
		}
	}

	_, err = tx.Exec(
		"UPDATE orders SET order_status = ?, payment_status = ?, cancelled_at = ?, updated_at = ? WHERE id = ?",
		models.OrderStatusCancelled, models.PaymentStatusRefunded, now, now, orderID,
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to cancel order: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to commit cancellation: %w", err))
	}

	if order.PaymentStatus == models.PaymentStatusPaid && order.PaymentDetails.TransactionID != "" {
		if err := s.payments.Refund(orderID, order.PaymentDetails.TransactionID); err != nil {
			s.logger.Warn("refund could not be completed, manual follow-up needed",
				zap.String("orderId", orderID))
		}
	}

	s.logger.Info("order cancelled",
		zap.String("orderId", orderID),
		zap.String("requestedBy", requesterID))

	order.OrderStatus = models.OrderStatusCancelled
	order.PaymentStatus = models.PaymentStatusRefunded
	order.CancelledAt = &now
	order.UpdatedAt = now
	return order, nil
}

// UpdateOrderStatus transitions an order to a new status (staff operation).
// Terminal states reject any further change; delivered is only reachable from
// shipped. Transitions into cancelled or refunded restore stock. An optional
// note is appended to the order's notes with a timestamp.
func (s *OrderService) UpdateOrderStatus(orderID string, newStatus models.OrderStatus, note *string) (*models.Order, error) {
	if !models.IsValidOrderStatus(newStatus) {
		return nil, apperrors.BadRequest("Estado de orden inválido: %s.", newStatus)
	}

	order, err := s.getOrderAnyOwner(orderID)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus.IsTerminal() {
		return nil, apperrors.BadRequest(
			"La orden en estado %s no admite más cambios.", order.OrderStatus)
	}
	if order.OrderStatus == newStatus {
		return order, nil
	}
	if newStatus == models.OrderStatusDelivered && order.OrderStatus != models.OrderStatusShipped {
		return nil, apperrors.BadRequest(
			"Solo una orden enviada puede marcarse como entregada.")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	previousStatus := order.OrderStatus
	set := "order_status = ?, updated_at = ?"
	args := []interface{}{newStatus, now}

	switch newStatus {
	case models.OrderStatusShipped:
		set += ", shipping_status = ?, shipped_at = ?"
		args = append(args, models.ShippingStatusShipped, now)
		order.ShippingStatus = models.ShippingStatusShipped
		order.ShippedAt = &now
	case models.OrderStatusDelivered:
		set += ", shipping_status = ?, delivered_at = ?"
		args = append(args, models.ShippingStatusDelivered, now)
		order.ShippingStatus = models.ShippingStatusDelivered
		order.DeliveredAt = &now
	case models.OrderStatusCancelled, models.OrderStatusRefunded:
		for _, item := range order.Items {
			_, err := tx.Exec(
				"UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?",
				item.Quantity, now, item.ProductID,
			)
			if err != nil {
				return nil, apperrors.Internal(fmt.Errorf("failed to restore stock: %w", err))
			}
		}
		set += ", payment_status = ?"
		args = append(args, models.PaymentStatusRefunded)
		order.PaymentStatus = models.PaymentStatusRefunded
		if newStatus == models.OrderStatusCancelled {
			set += ", cancelled_at = ?"
			args = append(args, now)
			order.CancelledAt = &now
		} else {
			set += ", refunded_at = ?"
			args = append(args, now)
			order.RefundedAt = &now
		}
	}

	if note != nil && *note != "" {
		entry := fmt.Sprintf("[%s] %s", now.Format(time.RFC3339), *note)
		if order.Notes != nil && *order.Notes != "" {
			entry = *order.Notes + "\n" + entry
		}
		set += ", notes = ?"
		args = append(args, entry)
		order.Notes = &entry
	}

	args = append(args, orderID)
	if _, err := tx.Exec("UPDATE orders SET "+set+" WHERE id = ?", args...); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update order status: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to commit status update: %w", err))
	}

	s.logger.Info("order status updated",
		zap.String("orderId", orderID),
		zap.String("from", string(previousStatus)),
		zap.String("to", string(newStatus)))

	order.OrderStatus = newStatus
	order.UpdatedAt = now
	return order, nil
}

// UpdatePaymentStatus records a payment state reported by the gateway webhook.
// The caller is trusted; route access controls who can reach this.
func (s *OrderService) UpdatePaymentStatus(orderID string, status models.PaymentStatus) (*models.Order, error) {
	if !models.IsValidPaymentStatus(status) {
		return nil, apperrors.BadRequest("Estado de pago inválido: %s.", status)
	}
	order, err := s.getOrderAnyOwner(orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if _, err := s.db.Exec(
		"UPDATE orders SET payment_status = ?, updated_at = ? WHERE id = ?",
		status, now, orderID,
	); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update payment status: %w", err))
	}
	order.PaymentStatus = status
	order.UpdatedAt = now
	return order, nil
}

// UpdateShippingDetails attaches carrier data to an order and marks it shipped
func (s *OrderService) UpdateShippingDetails(orderID, trackingNumber, provider string, estimatedDelivery *time.Time) (*models.Order, error) {
	order, err := s.getOrderAnyOwner(orderID)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus.IsTerminal() {
		return nil, apperrors.BadRequest(
			"La orden en estado %s no admite más cambios.", order.OrderStatus)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(
		`UPDATE orders SET tracking_number = ?, shipping_provider = ?,
			estimated_delivery_date = ?, order_status = ?, shipping_status = ?,
			shipped_at = COALESCE(shipped_at, ?), updated_at = ?
		WHERE id = ?`,
		trackingNumber, provider, estimatedDelivery,
		models.OrderStatusShipped, models.ShippingStatusShipped, now, now, orderID,
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update shipping details: %w", err))
	}

	order.TrackingNumber = &trackingNumber
	order.ShippingProvider = &provider
	order.EstimatedDeliveryDate = estimatedDelivery
	order.OrderStatus = models.OrderStatusShipped
	order.ShippingStatus = models.ShippingStatusShipped
	if order.ShippedAt == nil {
		order.ShippedAt = &now
	}
	order.UpdatedAt = now
	return order, nil
}

func (s *OrderService) getOrderAnyOwner(orderID string) (*models.Order, error) {
	query := "SELECT " + orderColumns + " FROM orders WHERE id = ?"
	order, err := scanOrder(s.db.QueryRow(query, orderID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound("Orden no encontrada.")
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get order: %w", err))
	}
	if err := s.loadItems(order); err != nil {
		return nil, err
	}
	return order, nil
}
