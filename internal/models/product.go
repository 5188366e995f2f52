package models

import (
	"encoding/json"
	"time"
)

// Section represents a top-level store section
type Section string

const (
	SectionVideoGames    Section = "Video Games"
	SectionComputers     Section = "Computers"
	SectionConsoles      Section = "Consoles"
	SectionComponents    Section = "Components"
	SectionStorageFlash  Section = "Storage & Flash"
	SectionAccessories   Section = "Accessories"
	SectionPeripherals   Section = "Peripherals"
	SectionMonitors      Section = "Monitors"
	SectionCablesAdapter Section = "Cables & Adapters"
	SectionPower         Section = "Power"
	SectionNetworking    Section = "Networking"
)

// Product represents a catalog product
type Product struct {
	ID                 string            `json:"id" db:"id"`
	Name               string            `json:"name" db:"name"`
	Description        string            `json:"description" db:"description"`
	Price              float64           `json:"price" db:"price"`
	Stock              int               `json:"stock" db:"stock"`
	Brand              *string           `json:"brand,omitempty" db:"brand"`
	Images             []string          `json:"images" db:"images"`
	Videos             []string          `json:"videos" db:"videos"`
	Section            Section           `json:"section" db:"section"`
	Category           string            `json:"category" db:"category"`
	Subcategory        *string           `json:"subcategory,omitempty" db:"subcategory"`
	Specs              map[string]string `json:"specs" db:"specs"`
	DiscountPercentage float64           `json:"discountPercentage" db:"discount_percentage"`
	Rating             float64           `json:"rating" db:"rating"`
	IsFeatured         bool              `json:"isFeatured" db:"is_featured"`
	IsNewProduct       bool              `json:"isNewProduct" db:"is_new"`
	CreatedAt          time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time         `json:"updatedAt" db:"updated_at"`
}

// EffectivePrice returns the unit price with the current discount applied
func (p *Product) EffectivePrice() float64 {
	return p.Price * (1 - p.DiscountPercentage/100)
}

// IsInStock checks if the product has sufficient stock
func (p *Product) IsInStock(quantity int) bool {
	return p.Stock >= quantity
}

// FirstImage returns the primary image URL, if any
func (p *Product) FirstImage() *string {
	if len(p.Images) == 0 {
		return nil
	}
	return &p.Images[0]
}

// GetImagesJSON returns images as JSON string for database storage
func (p *Product) GetImagesJSON() (string, error) {
	return marshalStringSlice(p.Images)
}

// SetImagesFromJSON sets images from JSON string
func (p *Product) SetImagesFromJSON(imagesJSON string) error {
	return unmarshalStringSlice(imagesJSON, &p.Images)
}

// GetVideosJSON returns videos as JSON string for database storage
func (p *Product) GetVideosJSON() (string, error) {
	return marshalStringSlice(p.Videos)
}

// SetVideosFromJSON sets videos from JSON string
func (p *Product) SetVideosFromJSON(videosJSON string) error {
	return unmarshalStringSlice(videosJSON, &p.Videos)
}

// GetSpecsJSON returns specs as JSON string for database storage
func (p *Product) GetSpecsJSON() (string, error) {
	if len(p.Specs) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(p.Specs)
	return string(data), err
}

// SetSpecsFromJSON sets specs from JSON string
func (p *Product) SetSpecsFromJSON(specsJSON string) error {
	if specsJSON == "" || specsJSON == "{}" {
		p.Specs = map[string]string{}
		return nil
	}
	return json.Unmarshal([]byte(specsJSON), &p.Specs)
}

func marshalStringSlice(s []string) (string, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	return string(data), err
}

func unmarshalStringSlice(data string, dst *[]string) error {
	if data == "" {
		*dst = []string{}
		return nil
	}
	return json.Unmarshal([]byte(data), dst)
}

// ProductCreation represents data for creating a new product
type ProductCreation struct {
	Name               string            `json:"name" binding:"required"`
	Description        string            `json:"description" binding:"required"`
	Price              float64           `json:"price" binding:"required,gt=0"`
	Stock              int               `json:"stock" binding:"gte=0"`
	Brand              *string           `json:"brand,omitempty"`
	Images             []string          `json:"images" binding:"required,min=1"`
	Videos             []string          `json:"videos"`
	Section            Section           `json:"section" binding:"required"`
	Category           string            `json:"category" binding:"required"`
	Subcategory        *string           `json:"subcategory,omitempty"`
	Specs              map[string]string `json:"specs"`
	DiscountPercentage float64           `json:"discountPercentage" binding:"gte=0,lte=100"`
}

// ProductUpdate represents data for updating a product
type ProductUpdate struct {
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	Price       *float64          `json:"price,omitempty"`
	Brand       *string           `json:"brand,omitempty"`
	Images      []string          `json:"images,omitempty"`
	Videos      []string          `json:"videos,omitempty"`
	Section     *Section          `json:"section,omitempty"`
	Category    *string           `json:"category,omitempty"`
	Subcategory *string           `json:"subcategory,omitempty"`
	Specs       map[string]string `json:"specs,omitempty"`
}

// ProductFilters represents catalog listing filters
type ProductFilters struct {
	Section     *string
	Category    *string
	Subcategory *string
	Brand       *string
	Search      *string
	Featured    *bool
	New         *bool
	MinPrice    *float64
	MaxPrice    *float64
}
