package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"ratacueva-backend/internal/apperrors"
	"ratacueva-backend/internal/models"
)

type PcBuildServiceTestSuite struct {
	suite.Suite
	db     *sql.DB
	builds *PcBuildService
	carts  *CartService
	user   *models.User
}

func (s *PcBuildServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.carts = NewCartService(s.db, testLogger())
	s.builds = NewPcBuildService(s.db, s.carts, testLogger())
	s.user = seedUser(s.T(), s.db, models.RoleClient)
}

func (s *PcBuildServiceTestSuite) creation() (*models.PcBuildCreation, float64) {
	cpu := seedProduct(s.T(), s.db, "CPU", 5000, 3, 0)
	mobo := seedProduct(s.T(), s.db, "Motherboard", 3000, 3, 0)
	cooler := seedProduct(s.T(), s.db, "Cooler", 800, 3, 0)
	ram := seedProduct(s.T(), s.db, "RAM", 1200, 3, 0)
	gpu := seedProduct(s.T(), s.db, "GPU", 9000, 3, 10) // effective 8100
	storage := seedProduct(s.T(), s.db, "SSD", 1500, 3, 0)
	pcCase := seedProduct(s.T(), s.db, "Case", 2000, 3, 0)
	psu := seedProduct(s.T(), s.db, "PSU", 2200, 3, 0)

	return &models.PcBuildCreation{
		ProcessorType: models.ProcessorTypeAMD,
		ProcessorID:   cpu.ID,
		MotherboardID: mobo.ID,
		CoolerID:      cooler.ID,
		RAMID:         ram.ID,
		GPUID:         gpu.ID,
		StorageID:     storage.ID,
		CaseID:        pcCase.ID,
		PowerSupplyID: psu.ID,
		Assembly:      models.AssemblyAssembled,
	}, 5000 + 3000 + 800 + 1200 + 8100 + 1500 + 2000 + 2200
}

func (s *PcBuildServiceTestSuite) TestCreateBuildPricesComponentsAndFillsCart() {
	creation, expectedTotal := s.creation()

	build, err := s.builds.CreateBuild(s.user.ID, creation)
	s.Require().NoError(err)
	s.InDelta(expectedTotal, build.TotalPrice, 0.001)

	cart, err := s.carts.GetCart(s.user.ID)
	s.Require().NoError(err)
	s.Len(cart.Items, 8, "every component lands in the cart")
}

func (s *PcBuildServiceTestSuite) TestMissingComponentFailsBuild() {
	creation, _ := s.creation()
	creation.GPUID = "ghost"

	_, err := s.builds.CreateBuild(s.user.ID, creation)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))

	var count int
	s.Require().NoError(s.db.QueryRow("SELECT COUNT(*) FROM pc_builds").Scan(&count))
	s.Equal(0, count)
}

func (s *PcBuildServiceTestSuite) TestOutOfStockComponentFailsBuild() {
	creation, _ := s.creation()
	empty := seedProduct(s.T(), s.db, "Rare GPU", 20000, 0, 0)
	creation.GPUID = empty.ID

	_, err := s.builds.CreateBuild(s.user.ID, creation)
	s.True(apperrors.IsKind(err, apperrors.KindBadRequest))
}

func (s *PcBuildServiceTestSuite) TestInvalidEnumsRejected() {
	creation, _ := s.creation()
	creation.ProcessorType = models.ProcessorType("Quantum")
	_, err := s.builds.CreateBuild(s.user.ID, creation)
	s.True(apperrors.IsKind(err, apperrors.KindBadRequest))
}

func (s *PcBuildServiceTestSuite) TestOptionalSlotsIncluded() {
	creation, baseTotal := s.creation()
	extraRAM := seedProduct(s.T(), s.db, "RAM extra", 1100, 3, 0)
	creation.ExtraRAMID = &extraRAM.ID

	build, err := s.builds.CreateBuild(s.user.ID, creation)
	s.Require().NoError(err)
	s.InDelta(baseTotal+1100, build.TotalPrice, 0.001)
}

func (s *PcBuildServiceTestSuite) TestListAndDelete() {
	creation, _ := s.creation()
	build, err := s.builds.CreateBuild(s.user.ID, creation)
	s.Require().NoError(err)

	builds, err := s.builds.ListBuilds(s.user.ID)
	s.Require().NoError(err)
	s.Len(builds, 1)

	other := seedUser(s.T(), s.db, models.RoleClient)
	err = s.builds.DeleteBuild(build.ID, other.ID)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound), "foreign builds read as missing")

	s.NoError(s.builds.DeleteBuild(build.ID, s.user.ID))
}

func TestPcBuildServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PcBuildServiceTestSuite))
}
