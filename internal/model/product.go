package model

import "time"

// ProductType classifies the hardware families handled by the workshop.
type ProductType string

const (
	ProductDoorDetector ProductType = "DOOR_DETECTOR"
	ProductControlUnit  ProductType = "CONTROL_UNIT"
	ProductOverload     ProductType = "OVERLOAD"
)

// ParseProductType maps a canonical key to a ProductType.
func ParseProductType(s string) (ProductType, bool) {
	switch ProductType(s) {
	case ProductDoorDetector, ProductControlUnit, ProductOverload:
		return ProductType(s), true
	}
	return "", false
}

// ProductTypeLabels maps product types to human-readable names.
var ProductTypeLabels = map[ProductType]string{
	ProductDoorDetector: "Door Detector",
	ProductControlUnit:  "Control Unit",
	ProductOverload:     "Overload",
}

// ProductModel is an entry in the product catalog.  Case items reference a
// product model by id.
type ProductModel struct {
	ID          uint64
	Name        string
	ProductType ProductType
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
