package models

import "time"

// ProcessorType represents the CPU platform of a build
type ProcessorType string

const (
	ProcessorTypeIntel ProcessorType = "Intel"
	ProcessorTypeAMD   ProcessorType = "AMD"
)

// AssemblyType represents whether the store assembles the build
type AssemblyType string

const (
	AssemblyAssembled   AssemblyType = "Assembled"
	AssemblyUnassembled AssemblyType = "Unassembled"
)

// PcBuild represents a saved PC configuration. Every component references a
// catalog product; the total price is captured when the build is saved.
type PcBuild struct {
	ID             string        `json:"id" db:"id"`
	UserID         string        `json:"userId" db:"user_id"`
	ProcessorType  ProcessorType `json:"processorType" db:"processor_type"`
	ProcessorID    string        `json:"processorId" db:"processor_id"`
	MotherboardID  string        `json:"motherboardId" db:"motherboard_id"`
	CoolerID       string        `json:"coolerId" db:"cooler_id"`
	RAMID          string        `json:"ramId" db:"ram_id"`
	ExtraRAMID     *string       `json:"extraRamId,omitempty" db:"extra_ram_id"`
	GPUID          string        `json:"gpuId" db:"gpu_id"`
	StorageID      string        `json:"storageId" db:"storage_id"`
	ExtraStorageID *string       `json:"extraStorageId,omitempty" db:"extra_storage_id"`
	CaseID         string        `json:"caseId" db:"case_id"`
	PowerSupplyID  string        `json:"powerSupplyId" db:"power_supply_id"`
	Assembly       AssemblyType  `json:"assembly" db:"assembly"`
	TotalPrice     float64       `json:"totalPrice" db:"total_price"`
	CreatedAt      time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time     `json:"updatedAt" db:"updated_at"`
}

// PcBuildCreation represents data for saving a build and pushing it to the cart
type PcBuildCreation struct {
	ProcessorType  ProcessorType `json:"processorType" binding:"required"`
	ProcessorID    string        `json:"processorId" binding:"required"`
	MotherboardID  string        `json:"motherboardId" binding:"required"`
	CoolerID       string        `json:"coolerId" binding:"required"`
	RAMID          string        `json:"ramId" binding:"required"`
	ExtraRAMID     *string       `json:"extraRamId,omitempty"`
	GPUID          string        `json:"gpuId" binding:"required"`
	StorageID      string        `json:"storageId" binding:"required"`
	ExtraStorageID *string       `json:"extraStorageId,omitempty"`
	CaseID         string        `json:"caseId" binding:"required"`
	PowerSupplyID  string        `json:"powerSupplyId" binding:"required"`
	Assembly       AssemblyType  `json:"assembly" binding:"required"`
}

// ComponentIDs returns every referenced product id in slot order, required
// slots first
func (c *PcBuildCreation) ComponentIDs() []string {
	ids := []string{
		c.ProcessorID, c.MotherboardID, c.CoolerID, c.RAMID,
		c.GPUID, c.StorageID, c.CaseID, c.PowerSupplyID,
	}
	if c.ExtraRAMID != nil {
		ids = append(ids, *c.ExtraRAMID)
	}
	if c.ExtraStorageID != nil {
		ids = append(ids, *c.ExtraStorageID)
	}
	return ids
}
