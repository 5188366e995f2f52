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

// PcBuildService handles the PC configurator: validating a component
// selection, pricing it and pushing the parts into the cart.
type PcBuildService struct {
	db     *sql.DB
	carts  *CartService
	logger *zap.Logger
}

// NewPcBuildService creates a new PC build service
func NewPcBuildService(db *sql.DB, carts *CartService, logger *zap.Logger) *PcBuildService {
	return &PcBuildService{db: db, carts: carts, logger: logger}
}

// CreateBuild validates every selected component against the catalog, saves
// the build with its priced total and adds each component to the user's cart.
// A component that is missing or out of stock fails the whole build before
// anything is saved.
func (s *PcBuildService) CreateBuild(userID string, creation *models.PcBuildCreation) (*models.PcBuild, error) {
	if creation.ProcessorType != models.ProcessorTypeIntel && creation.ProcessorType != models.ProcessorTypeAMD {
		return nil, apperrors.BadRequest("Tipo de procesador inválido: %s.", creation.ProcessorType)
	}
	if creation.Assembly != models.AssemblyAssembled && creation.Assembly != models.AssemblyUnassembled {
		return nil, apperrors.BadRequest("Tipo de ensamblaje inválido: %s.", creation.Assembly)
	}

	componentIDs := creation.ComponentIDs()
	totalPrice := 0.0
	for _, componentID := range componentIDs {
		var product models.Product
		err := s.db.QueryRow(
			"SELECT id, name, price, stock, discount_percentage FROM products WHERE id = ?",
			componentID,
		).Scan(&product.ID, &product.Name, &product.Price, &product.Stock, &product.DiscountPercentage)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, apperrors.NotFound("Componente %s no encontrado.", componentID)
			}
			return nil, apperrors.Internal(fmt.Errorf("failed to get component: %w", err))
		}
		if product.Stock < 1 {
			return nil, apperrors.BadRequest("El componente %s no tiene stock disponible.", product.Name)
		}
		totalPrice += product.EffectivePrice()
	}

	now := time.Now().UTC()
	build := &models.PcBuild{
		ID:             uuid.New().String(),
		UserID:         userID,
		ProcessorType:  creation.ProcessorType,
		ProcessorID:    creation.ProcessorID,
		MotherboardID:  creation.MotherboardID,
		CoolerID:       creation.CoolerID,
		RAMID:          creation.RAMID,
		ExtraRAMID:     creation.ExtraRAMID,
		GPUID:          creation.GPUID,
		StorageID:      creation.StorageID,
		ExtraStorageID: creation.ExtraStorageID,
		CaseID:         creation.CaseID,
		PowerSupplyID:  creation.PowerSupplyID,
		Assembly:       creation.Assembly,
		TotalPrice:     totalPrice,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := s.db.Exec(
		`INSERT INTO pc_builds (id, user_id, processor_type, processor_id,
			motherboard_id, cooler_id, ram_id, extra_ram_id, gpu_id, storage_id,
			extra_storage_id, case_id, power_supply_id, assembly, total_price,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		build.ID, build.UserID, build.ProcessorType, build.ProcessorID,
		build.MotherboardID, build.CoolerID, build.RAMID, build.ExtraRAMID,
		build.GPUID, build.StorageID, build.ExtraStorageID, build.CaseID,
		build.PowerSupplyID, build.Assembly, build.TotalPrice,
		build.CreatedAt, build.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to save build: %w", err))
	}

	for _, componentID := range componentIDs {
		if _, err := s.carts.AddItem(userID, componentID, 1, ""); err != nil {
			// The build is saved; a cart failure here means a racing stock
			// change. Report it so the client can retry the cart step.
			s.logger.Warn("build saved but component could not be added to cart",
				zap.String("buildId", build.ID),
				zap.String("productId", componentID),
				zap.Error(err))
			return nil, err
		}
	}

	s.logger.Info("pc build created",
		zap.String("buildId", build.ID),
		zap.String("userId", userID),
		zap.Float64("totalPrice", totalPrice))
	return build, nil
}

// ListBuilds returns the user's saved builds, newest first
func (s *PcBuildService) ListBuilds(userID string) ([]*models.PcBuild, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, processor_type, processor_id, motherboard_id,
			cooler_id, ram_id, extra_ram_id, gpu_id, storage_id, extra_storage_id,
			case_id, power_supply_id, assembly, total_price, created_at, updated_at
		FROM pc_builds WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to query builds: %w", err))
	}
	defer rows.Close()

	var builds []*models.PcBuild
	for rows.Next() {
		build := &models.PcBuild{}
		err := rows.Scan(&build.ID, &build.UserID, &build.ProcessorType,
			&build.ProcessorID, &build.MotherboardID, &build.CoolerID,
			&build.RAMID, &build.ExtraRAMID, &build.GPUID, &build.StorageID,
			&build.ExtraStorageID, &build.CaseID, &build.PowerSupplyID,
			&build.Assembly, &build.TotalPrice, &build.CreatedAt, &build.UpdatedAt)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to scan build: %w", err))
		}
		builds = append(builds, build)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("error iterating builds: %w", err))
	}
	return builds, nil
}

// DeleteBuild removes one of the user's saved builds
func (s *PcBuildService) DeleteBuild(buildID, userID string) error {
	result, err := s.db.Exec("DELETE FROM pc_builds WHERE id = ? AND user_id = ?", buildID, userID)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to delete build: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Internal(err)
	}
	if affected == 0 {
		return apperrors.NotFound("Configuración no encontrada.")
	}
	return nil
}
