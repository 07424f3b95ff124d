package models

import (
	"time"

	"gorm.io/gorm"
)

// Stock transaction types
const (
	StockTransactionPurchase   = "Purchase"
	StockTransactionAdjustment = "Adjustment"
)

// Vendor represents a cylinder supplier purchases are recorded against
type Vendor struct {
	ID        uint           `gorm:"primaryKey" json:"vendorId"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"vendorName"`
	Phone     string         `json:"phone"`
	IsActive  bool           `gorm:"not null;default:true" json:"isActive"`
}

// PurchaseEntry is one vendor invoice bringing cylinder stock into the plant
type PurchaseEntry struct {
	ID           uint                `gorm:"primaryKey" json:"purchaseId"`
	CreatedAt    time.Time           `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt      `gorm:"index" json:"-"`
	VendorID     uint                `gorm:"not null;index" json:"vendorId"`
	InvoiceNo    string              `gorm:"not null;uniqueIndex" json:"invoiceNo"`
	PurchaseDate time.Time           `gorm:"type:date;not null;index" json:"purchaseDate"`
	Remarks      string              `json:"remarks"`
	IsActive     bool                `gorm:"not null;default:true" json:"isActive"`
	TotalAmount  float64             `gorm:"not null;default:0" json:"totalAmount"`
	Items        []PurchaseEntryItem `gorm:"foreignKey:PurchaseEntryID" json:"items,omitempty"`
	Vendor       Vendor              `gorm:"foreignKey:VendorID" json:"-"`
}

// PurchaseEntryItem is one product line on a purchase invoice
type PurchaseEntryItem struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	PurchaseEntryID uint      `gorm:"not null;index" json:"purchaseId"`
	ProductID       uint      `gorm:"not null" json:"productId"`
	Quantity        int       `gorm:"not null" json:"qty"`
	UnitPrice       float64   `gorm:"not null" json:"unitPrice"`
	LineTotal       float64   `gorm:"not null;default:0" json:"lineTotal"`
	Product         Product   `gorm:"foreignKey:ProductID" json:"-"`
}

// StockRegister holds the current filled/empty/damaged cylinder counts for one
// product. Rows are created on the product's first stock movement; every level
// change goes through a StockTransaction in the same database transaction.
type StockRegister struct {
	ID           uint      `gorm:"primaryKey" json:"stockId"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"lastUpdated"`
	ProductID    uint      `gorm:"not null;uniqueIndex" json:"productId"`
	FilledStock  int       `gorm:"not null;default:0" json:"filledStock"`
	EmptyStock   int       `gorm:"not null;default:0" json:"emptyStock"`
	DamagedStock int       `gorm:"not null;default:0" json:"damagedStock"`
	UpdatedBy    string    `json:"updatedBy"`
	Product      Product   `gorm:"foreignKey:ProductID" json:"-"`
}

// TotalStock derives the combined cylinder count across conditions
func (s StockRegister) TotalStock() int {
	return s.FilledStock + s.EmptyStock + s.DamagedStock
}

// StockTransaction is one audited movement against a product's stock register
type StockTransaction struct {
	ID              uint      `gorm:"primaryKey" json:"transactionId"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"transactionDate"`
	ProductID       uint      `gorm:"not null;index" json:"productId"`
	TransactionType string    `gorm:"not null;index" json:"transactionType"`
	FilledChange    int       `gorm:"not null;default:0" json:"filledChange"`
	EmptyChange     int       `gorm:"not null;default:0" json:"emptyChange"`
	DamagedChange   int       `gorm:"not null;default:0" json:"damagedChange"`
	ReferenceID     *uint     `json:"referenceId"`
	ReferenceType   string    `json:"referenceType"`
	Remarks         string    `json:"remarks"`
	CreatedBy       string    `json:"createdBy"`
	Product         Product   `gorm:"foreignKey:ProductID" json:"-"`
}

// VehicleAssignment pairs a driver with a vehicle for a date, route and shift
type VehicleAssignment struct {
	ID           uint           `gorm:"primaryKey" json:"assignmentId"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	VehicleID    uint           `gorm:"not null;index" json:"vehicleId"`
	DriverID     uint           `gorm:"not null;index" json:"driverId"`
	AssignedDate time.Time      `gorm:"type:date;not null;index" json:"assignedDate"`
	RouteName    string         `json:"routeName"`
	Shift        string         `json:"shift"`
	IsActive     bool           `gorm:"not null;default:true" json:"isActive"`
	Vehicle      Vehicle        `gorm:"foreignKey:VehicleID" json:"-"`
	Driver       Driver         `gorm:"foreignKey:DriverID" json:"-"`
}
