package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

type ProductServiceTestSuite struct {
	suite.Suite
	db       *sql.DB
	products *ProductService
}

func (s *ProductServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.products = NewProductService(s.db, testLogger())
}

func (s *ProductServiceTestSuite) TestCreateAndGetRoundTrip() {
	brand := "NVIDIA"
	created, err := s.products.CreateProduct(&models.ProductCreation{
		Name:        "RTX 4070",
		Description: "12GB GDDR6X",
		Price:       12999,
		Stock:       5,
		Brand:       &brand,
		Images:      []string{"https://cdn.test/4070.jpg"},
		Section:     models.SectionComponents,
		Category:    "GPU",
		Specs:       map[string]string{"vram": "12GB"},
	})
	s.Require().NoError(err)
	s.Zero(created.Rating, "new products start unrated")

	got, err := s.products.GetProductByID(created.ID)
	s.Require().NoError(err)
	s.Equal("RTX 4070", got.Name)
	s.Equal([]string{"https://cdn.test/4070.jpg"}, got.Images)
	s.Equal("12GB", got.Specs["vram"])
}

func (s *ProductServiceTestSuite) TestListFiltersAndPaginates() {
	for i := 0; i < 3; i++ {
		seedProduct(s.T(), s.db, "GPU modelo", 5000, 5, 0)
	}
	cheap := seedProduct(s.T(), s.db, "Cable barato", 99, 5, 0)

	maxPrice := 100.0
	products, total, err := s.products.ListProducts(models.ProductFilters{MaxPrice: &maxPrice}, 20, 0)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(products, 1)
	s.Equal(cheap.ID, products[0].ID)

	_, total, err = s.products.ListProducts(models.ProductFilters{}, 2, 0)
	s.Require().NoError(err)
	s.Equal(4, total, "total counts beyond the page")
}

func (s *ProductServiceTestSuite) TestSearchMatchesNameAndDescription() {
	seedProduct(s.T(), s.db, "Teclado mecánico", 999, 5, 0)
	seedProduct(s.T(), s.db, "Mouse", 599, 5, 0)

	search := "mecánico"
	products, total, err := s.products.ListProducts(models.ProductFilters{Search: &search}, 20, 0)
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Len(products, 1)
}

func (s *ProductServiceTestSuite) TestStockAndDiscountBounds() {
	product := seedProduct(s.T(), s.db, "SSD", 1500, 5, 0)

	_, err := s.products.UpdateStock(product.ID, -1)
	s.True(apperrors.IsKind(err, apperrors.KindBadRequest))

	updated, err := s.products.UpdateStock(product.ID, 0)
	s.Require().NoError(err)
	s.Equal(0, updated.Stock)

	_, err = s.products.UpdateDiscount(product.ID, 101)
	s.True(apperrors.IsKind(err, apperrors.KindBadRequest))

	updated, err = s.products.UpdateDiscount(product.ID, 25)
	s.Require().NoError(err)
	s.InDelta(25.0, updated.DiscountPercentage, 0.001)
	s.InDelta(1125.0, updated.EffectivePrice(), 0.001)
}

func (s *ProductServiceTestSuite) TestUpdateMissingProduct() {
	_, err := s.products.UpdateStock("ghost", 5)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))

	err = s.products.DeleteProduct("ghost")
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestProductServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceTestSuite))
}
