package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

type CartServiceTestSuite struct {
	suite.Suite
	db    *sql.DB
	carts *CartService
	user  *models.User
}

func (s *CartServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.carts = NewCartService(s.db, testLogger())
	s.user = seedUser(s.T(), s.db, models.RoleClient)
}

func (s *CartServiceTestSuite) TestAddItemMergesSameProductAndVariation() {
	product := seedProduct(s.T(), s.db, "RTX 4070", 12999, 10, 0)

	_, err := s.carts.AddItem(s.user.ID, product.ID, 2, "")
	s.Require().NoError(err)

	cart, err := s.carts.AddItem(s.user.ID, product.ID, 3, "")
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 1)
	s.Equal(5, cart.Items[0].Quantity)
}

func (s *CartServiceTestSuite) TestAddItemDifferentVariationsStaySeparate() {
	product := seedProduct(s.T(), s.db, "Teclado", 999, 10, 0)

	_, err := s.carts.AddItem(s.user.ID, product.ID, 1, "red switches")
	s.Require().NoError(err)
	cart, err := s.carts.AddItem(s.user.ID, product.ID, 1, "blue switches")
	s.Require().NoError(err)
	s.Len(cart.Items, 2)
}

func (s *CartServiceTestSuite) TestAddItemRejectsOverstockAndKeepsLine() {
	product := seedProduct(s.T(), s.db, "SSD 1TB", 1499, 4, 0)

	_, err := s.carts.AddItem(s.user.ID, product.ID, 3, "")
	s.Require().NoError(err)

	_, err = s.carts.AddItem(s.user.ID, product.ID, 2, "")
	s.Require().Error(err)
	s.True(apperrors.IsKind(err, apperrors.KindBadRequest))

	cart, err := s.carts.GetCart(s.user.ID)
	s.Require().NoError(err)
	s.Equal(3, cart.Items[0].Quantity, "failed add must not change the existing line")
}

func (s *CartServiceTestSuite) TestAddItemUnknownProduct() {
	_, err := s.carts.AddItem(s.user.ID, "missing", 1, "")
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *CartServiceTestSuite) TestGetCartEmptyIsNotFound() {
	_, err := s.carts.GetCart(s.user.ID)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *CartServiceTestSuite) TestUpdateItemQuantityChecksStock() {
	product := seedProduct(s.T(), s.db, "Mouse", 599, 2, 0)
	cart, err := s.carts.AddItem(s.user.ID, product.ID, 1, "")
	s.Require().NoError(err)
	itemID := cart.Items[0].ID

	five := 5
	_, err = s.carts.UpdateItem(s.user.ID, itemID, &models.UpdateCartItemInput{Quantity: &five})
	s.True(apperrors.IsKind(err, apperrors.KindBadRequest))

	two := 2
	cart, err = s.carts.UpdateItem(s.user.ID, itemID, &models.UpdateCartItemInput{Quantity: &two})
	s.Require().NoError(err)
	s.Equal(2, cart.Items[0].Quantity)
}

func (s *CartServiceTestSuite) TestUpdateItemRemovesOrphanedLine() {
	product := seedProduct(s.T(), s.db, "Monitor", 4999, 3, 0)
	cart, err := s.carts.AddItem(s.user.ID, product.ID, 1, "")
	s.Require().NoError(err)
	itemID := cart.Items[0].ID

	_, err = s.db.Exec("DELETE FROM products WHERE id = ?", product.ID)
	s.Require().NoError(err)

	one := 1
	_, err = s.carts.UpdateItem(s.user.ID, itemID, &models.UpdateCartItemInput{Quantity: &one})
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))

	var count int
	s.Require().NoError(s.db.QueryRow("SELECT COUNT(*) FROM cart_items WHERE id = ?", itemID).Scan(&count))
	s.Equal(0, count, "orphaned line must be removed")
}

func (s *CartServiceTestSuite) TestRemoveAndClearAreIdempotent() {
	s.NoError(s.carts.RemoveItem(s.user.ID, "nothing"))
	s.NoError(s.carts.ClearCart(s.user.ID))

	product := seedProduct(s.T(), s.db, "Headset", 1299, 5, 0)
	cart, err := s.carts.AddItem(s.user.ID, product.ID, 1, "")
	s.Require().NoError(err)

	s.NoError(s.carts.RemoveItem(s.user.ID, cart.Items[0].ID))
	s.NoError(s.carts.RemoveItem(s.user.ID, cart.Items[0].ID))
}

func (s *CartServiceTestSuite) TestSyncCartMergesAndClamps() {
	inStock := seedProduct(s.T(), s.db, "RAM 16GB", 899, 3, 0)
	scarce := seedProduct(s.T(), s.db, "PSU 850W", 2199, 2, 0)

	_, err := s.carts.AddItem(s.user.ID, inStock.ID, 2, "")
	s.Require().NoError(err)

	cart, err := s.carts.SyncCart(s.user.ID, []models.SyncCartItem{
		{ProductID: inStock.ID, Quantity: 5},  // merges then clamps to stock 3
		{ProductID: scarce.ID, Quantity: 10},  // clamps to stock 2
		{ProductID: "ghost", Quantity: 1},     // skipped with a warning
		{ProductID: inStock.ID, Quantity: -1}, // invalid, skipped
	})
	s.Require().NoError(err)
	s.Require().Len(cart.Items, 2)

	byProduct := map[string]int{}
	for _, item := range cart.Items {
		byProduct[item.ProductID] = item.Quantity
	}
	s.Equal(3, byProduct[inStock.ID])
	s.Equal(2, byProduct[scarce.ID])
}

func TestCartServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CartServiceTestSuite))
}
