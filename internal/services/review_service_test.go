package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

type ReviewServiceTestSuite struct {
	suite.Suite
	db      *sql.DB
	reviews *ReviewService
}

func (s *ReviewServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.reviews = NewReviewService(s.db, testLogger())
}

func (s *ReviewServiceTestSuite) rating(productID string) float64 {
	var rating float64
	s.Require().NoError(s.db.QueryRow("SELECT rating FROM products WHERE id = ?", productID).Scan(&rating))
	return rating
}

func (s *ReviewServiceTestSuite) TestRatingAggregationRoundsToHalfSteps() {
	product := seedProduct(s.T(), s.db, "GPU", 9000, 5, 0)
	alice := seedUser(s.T(), s.db, models.RoleClient)
	bob := seedUser(s.T(), s.db, models.RoleClient)

	_, err := s.reviews.CreateReview(alice.ID, &models.ReviewCreation{
		ProductID: product.ID, Rating: 4,
	})
	s.Require().NoError(err)
	s.InDelta(4.0, s.rating(product.ID), 0.001)

	_, err = s.reviews.CreateReview(bob.ID, &models.ReviewCreation{
		ProductID: product.ID, Rating: 5,
	})
	s.Require().NoError(err)
	s.InDelta(4.5, s.rating(product.ID), 0.001, "avg 4.5 stays on the half step")
}

func (s *ReviewServiceTestSuite) TestDeletingLastReviewResetsRating() {
	product := seedProduct(s.T(), s.db, "SSD", 1500, 5, 0)
	user := seedUser(s.T(), s.db, models.RoleClient)

	review, err := s.reviews.CreateReview(user.ID, &models.ReviewCreation{
		ProductID: product.ID, Rating: 3.5,
	})
	s.Require().NoError(err)
	s.InDelta(3.5, s.rating(product.ID), 0.001)

	s.Require().NoError(s.reviews.DeleteReview(review.ID, user.ID, models.RoleClient))
	s.InDelta(0.0, s.rating(product.ID), 0.001)
}

func (s *ReviewServiceTestSuite) TestUpdateRecomputesRating() {
	product := seedProduct(s.T(), s.db, "Mouse", 600, 5, 0)
	user := seedUser(s.T(), s.db, models.RoleClient)

	review, err := s.reviews.CreateReview(user.ID, &models.ReviewCreation{
		ProductID: product.ID, Rating: 2,
	})
	s.Require().NoError(err)

	five := 5.0
	_, err = s.reviews.UpdateReview(review.ID, user.ID, &models.ReviewUpdate{Rating: &five})
	s.Require().NoError(err)
	s.InDelta(5.0, s.rating(product.ID), 0.001)
}

func (s *ReviewServiceTestSuite) TestInvalidRatingsRejected() {
	product := seedProduct(s.T(), s.db, "Case", 2000, 5, 0)
	user := seedUser(s.T(), s.db, models.RoleClient)

	for _, rating := range []float64{0, 0.3, 4.7, 5.5, -1} {
		_, err := s.reviews.CreateReview(user.ID, &models.ReviewCreation{
			ProductID: product.ID, Rating: rating,
		})
		s.Truef(apperrors.IsKind(err, apperrors.KindBadRequest), "rating %v must be rejected", rating)
	}
}

func (s *ReviewServiceTestSuite) TestOneReviewPerUserPerProduct() {
	product := seedProduct(s.T(), s.db, "Monitor", 5000, 5, 0)
	user := seedUser(s.T(), s.db, models.RoleClient)

	_, err := s.reviews.CreateReview(user.ID, &models.ReviewCreation{
		ProductID: product.ID, Rating: 4,
	})
	s.Require().NoError(err)

	_, err = s.reviews.CreateReview(user.ID, &models.ReviewCreation{
		ProductID: product.ID, Rating: 5,
	})
	s.True(apperrors.IsKind(err, apperrors.KindConflict))
}

func (s *ReviewServiceTestSuite) TestOnlyAuthorOrStaffCanDelete() {
	product := seedProduct(s.T(), s.db, "Headset", 1300, 5, 0)
	author := seedUser(s.T(), s.db, models.RoleClient)
	stranger := seedUser(s.T(), s.db, models.RoleClient)
	employee := seedUser(s.T(), s.db, models.RoleEmployee)

	review, err := s.reviews.CreateReview(author.ID, &models.ReviewCreation{
		ProductID: product.ID, Rating: 4.5,
	})
	s.Require().NoError(err)

	err = s.reviews.DeleteReview(review.ID, stranger.ID, models.RoleClient)
	s.True(apperrors.IsKind(err, apperrors.KindForbidden))

	s.NoError(s.reviews.DeleteReview(review.ID, employee.ID, models.RoleEmployee))
}

func TestReviewServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReviewServiceTestSuite))
}
