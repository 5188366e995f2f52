package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

type FavoritesServiceTestSuite struct {
	suite.Suite
	db        *sql.DB
	favorites *FavoritesService
	user      *models.User
}

func (s *FavoritesServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.favorites = NewFavoritesService(s.db, testLogger())
	s.user = seedUser(s.T(), s.db, models.RoleClient)
}

func (s *FavoritesServiceTestSuite) TestAddListRemove() {
	product := seedProduct(s.T(), s.db, "GPU", 9000, 5, 0)

	s.Require().NoError(s.favorites.AddFavorite(s.user.ID, product.ID))

	products, total, err := s.favorites.ListFavorites(s.user.ID, 20, 0)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(products, 1)
	s.Equal(product.ID, products[0].ID)

	isFav, err := s.favorites.IsFavorite(s.user.ID, product.ID)
	s.Require().NoError(err)
	s.True(isFav)

	s.Require().NoError(s.favorites.RemoveFavorite(s.user.ID, product.ID))
	_, total, err = s.favorites.ListFavorites(s.user.ID, 20, 0)
	s.Require().NoError(err)
	s.Equal(0, total)
}

func (s *FavoritesServiceTestSuite) TestDuplicateAddIsConflict() {
	product := seedProduct(s.T(), s.db, "SSD", 1500, 5, 0)

	s.Require().NoError(s.favorites.AddFavorite(s.user.ID, product.ID))
	err := s.favorites.AddFavorite(s.user.ID, product.ID)
	s.True(apperrors.IsKind(err, apperrors.KindConflict))
}

func (s *FavoritesServiceTestSuite) TestRemoveIsIdempotent() {
	product := seedProduct(s.T(), s.db, "Mouse", 600, 5, 0)
	s.NoError(s.favorites.RemoveFavorite(s.user.ID, product.ID))
}

func (s *FavoritesServiceTestSuite) TestUnknownProductIsNotFound() {
	err := s.favorites.AddFavorite(s.user.ID, "ghost")
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *FavoritesServiceTestSuite) TestDeletedProductsDropOut() {
	product := seedProduct(s.T(), s.db, "Monitor", 5000, 5, 0)
	s.Require().NoError(s.favorites.AddFavorite(s.user.ID, product.ID))

	_, err := s.db.Exec("DELETE FROM products WHERE id = ?", product.ID)
	s.Require().NoError(err)

	products, total, err := s.favorites.ListFavorites(s.user.ID, 20, 0)
	s.Require().NoError(err)
	s.Equal(0, total)
	s.Empty(products)
}

func TestFavoritesServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FavoritesServiceTestSuite))
}
