package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"ratacueva-backend/config"
	"ratacueva-backend/database"
	"ratacueva-backend/internal/middleware"
	"ratacueva-backend/internal/models"
	"ratacueva-backend/internal/services"
)

// APITestSuite wires a minimal router against an in-memory database to
// verify routing, auth gating and the response envelope end to end.
type APITestSuite struct {
	suite.Suite
	db     *sql.DB
	router *gin.Engine
	auth   *services.AuthService
}

func (s *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	db, err := sql.Open("sqlite3", ":memory:")
	s.Require().NoError(err)
	db.SetMaxOpenConns(1)
	s.Require().NoError(database.Migrate(db))
	s.db = db

	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiration: 3600}
	s.auth = services.NewAuthService(db, cfg, nil, logger)
	productService := services.NewProductService(db, logger)
	cartService := services.NewCartService(db, logger)

	authHandler := NewAuthHandler(s.auth, logger)
	productHandler := NewProductHandler(productService, logger)
	cartHandler := NewCartHandler(cartService, logger)

	authRequired := middleware.Authenticate(s.auth)
	staffOnly := middleware.RequireStaff()

	s.router = gin.New()
	apiGroup := s.router.Group("/api")
	apiGroup.POST("/auth/register", authHandler.Register)
	apiGroup.POST("/auth/login", authHandler.Login)
	apiGroup.POST("/auth/verify", authHandler.VerifyEmail)
	apiGroup.GET("/products", productHandler.ListProducts)
	apiGroup.GET("/products/:productId", productHandler.GetProduct)
	apiGroup.POST("/products", authRequired, staffOnly, productHandler.CreateProduct)
	apiGroup.GET("/cart", authRequired, cartHandler.GetCart)
}

func (s *APITestSuite) TearDownTest() {
	s.db.Close()
}

func (s *APITestSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *APITestSuite) registerAndLogin() string {
	w := s.request(http.MethodPost, "/api/auth/register", "", models.UserRegistration{
		Name:     "Carla",
		LastName: "Nuñez",
		Email:    "carla@test.mx",
		Password: "password123",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var verifyToken string
	s.Require().NoError(s.db.QueryRow(
		"SELECT verification_token FROM users WHERE email = ?", "carla@test.mx").Scan(&verifyToken))
	w = s.request(http.MethodPost, "/api/auth/verify", "", map[string]string{"token": verifyToken})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.request(http.MethodPost, "/api/auth/login", "", models.UserLogin{
		Email:    "carla@test.mx",
		Password: "password123",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().NotEmpty(resp.Data.Token)
	return resp.Data.Token
}

func (s *APITestSuite) TestUnauthenticatedCartIsRejected() {
	w := s.request(http.MethodGet, "/api/cart", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	var resp map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(false, resp["success"])
	s.Equal("unauthorized", resp["error"])
}

func (s *APITestSuite) TestClientCannotCreateProducts() {
	token := s.registerAndLogin()

	w := s.request(http.MethodPost, "/api/products", token, models.ProductCreation{
		Name:        "Prohibido",
		Description: "no",
		Price:       1,
		Images:      []string{"x"},
		Section:     models.SectionComponents,
		Category:    "GPU",
	})
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *APITestSuite) TestEmptyCartMapsToNotFoundEnvelope() {
	token := s.registerAndLogin()

	w := s.request(http.MethodGet, "/api/cart", token, nil)
	s.Equal(http.StatusNotFound, w.Code)

	var resp map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(false, resp["success"])
	s.Equal("not_found", resp["error"])
	s.NotEmpty(resp["message"])
}

func (s *APITestSuite) TestCatalogIsPublic() {
	w := s.request(http.MethodGet, "/api/products", "", nil)
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Success    bool `json:"success"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Zero(resp.Pagination.Total)
}

func (s *APITestSuite) TestUnknownProductIs404() {
	w := s.request(http.MethodGet, "/api/products/ghost", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestMalformedRegistrationIs400() {
	w := s.request(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "x",
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
