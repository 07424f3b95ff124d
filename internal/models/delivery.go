package models

import (
	"time"

	"gorm.io/gorm"
)

// DeliveryStatus is the lifecycle state of a daily delivery run
type DeliveryStatus string

const (
	DeliveryStatusOpen   DeliveryStatus = "Open"
	DeliveryStatusClosed DeliveryStatus = "Closed"
)

// ItemStatus is the reconciliation state of one product line in a delivery
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "Pending"
	ItemStatusPartial   ItemStatus = "Partial"
	ItemStatusCompleted ItemStatus = "Completed"
)

// Payment modes accepted on customer mappings and credit payments
const (
	PaymentModeCash   = "Cash"
	PaymentModeCredit = "Credit"
	PaymentModeCard   = "Card"
	PaymentModeUPI    = "UPI"
)

// DailyDelivery is one vehicle's delivery run for a date. At most one Open
// delivery may exist per (vehicle, date); the partial unique index backs the
// check performed at creation.
type DailyDelivery struct {
	ID                     uint           `gorm:"primaryKey" json:"deliveryId"`
	CreatedAt              time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`
	DeliveryDate           time.Time      `gorm:"type:date;not null;uniqueIndex:ux_open_vehicle_date,where:status = 'Open'" json:"deliveryDate"`
	VehicleID              uint           `gorm:"not null;uniqueIndex:ux_open_vehicle_date,where:status = 'Open'" json:"vehicleId"`
	DriverID               uint           `gorm:"not null;index" json:"driverId"`
	HelperDriverID         *uint          `json:"helperDriverId"`
	StartTime              string         `gorm:"not null" json:"startTime"`
	ReturnTime             *string        `json:"returnTime"`
	Status                 DeliveryStatus `gorm:"not null;default:'Open';index" json:"status"`
	ClosedAt               *time.Time     `json:"closedAt,omitempty"`
	Remarks                string         `json:"remarks"`
	CompletedInvoices      int            `gorm:"not null;default:0" json:"completedInvoices"`
	PendingInvoices        int            `gorm:"not null;default:0" json:"pendingInvoices"`
	CashCollected          float64        `gorm:"not null;default:0" json:"cashCollected"`
	EmptyCylindersReturned int            `gorm:"not null;default:0" json:"emptyCylindersReturned"`
	CylindersDelivered     int            `gorm:"not null;default:0" json:"cylindersDelivered"`
	Vehicle                Vehicle        `gorm:"foreignKey:VehicleID" json:"-"`
	Driver                 Driver         `gorm:"foreignKey:DriverID" json:"-"`
	Items                  []DeliveryItem `gorm:"foreignKey:DeliveryID" json:"items,omitempty"`
}

// DeliveryItem is one planned product line submitted with a delivery
type DeliveryItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	DeliveryID     uint      `gorm:"not null;index" json:"deliveryId"`
	ProductID      uint      `gorm:"not null" json:"productId"`
	NoOfCylinders  int       `gorm:"not null;default:0" json:"noOfCylinders"`
	NoOfInvoices   int       `gorm:"not null;default:0" json:"noOfInvoices"`
	NoOfDeliveries int       `gorm:"not null;default:0" json:"noOfDeliveries"`
	Product        Product   `gorm:"foreignKey:ProductID" json:"-"`
}

// DeliveryItemActual tracks planned vs delivered vs pending quantities for one
// product within a delivery. Seeded from the planned items, then updated in
// bulk as the run progresses. One row per (delivery, product).
type DeliveryItemActual struct {
	ID                uint       `gorm:"primaryKey" json:"actualId"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
	DeliveryID        uint       `gorm:"not null;uniqueIndex:ux_actual_delivery_product" json:"deliveryId"`
	ProductID         uint       `gorm:"not null;uniqueIndex:ux_actual_delivery_product" json:"productId"`
	PlannedQuantity   int        `gorm:"not null;default:0" json:"plannedQuantity"`
	DeliveredQuantity int        `gorm:"not null;default:0" json:"deliveredQuantity"`
	PendingQuantity   int        `gorm:"not null;default:0" json:"pendingQuantity"`
	CashCollected     float64    `gorm:"not null;default:0" json:"cashCollected"`
	ItemStatus        ItemStatus `gorm:"not null;default:'Pending'" json:"itemStatus"`
	Remarks           string     `json:"remarks"`
	UnitPrice         float64    `gorm:"not null;default:0" json:"unitPrice"`
	TotalAmount       float64    `gorm:"not null;default:0" json:"totalAmount"`
	Product           Product    `gorm:"foreignKey:ProductID" json:"-"`
}

// CustomerCylinderMapping allocates delivered commercial stock to a customer
// sale. The sum of mapped quantities for a (delivery, product) pair never
// exceeds that item's delivered quantity.
type CustomerCylinderMapping struct {
	ID            uint      `gorm:"primaryKey" json:"mappingId"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"-"`
	DeliveryID    uint      `gorm:"not null;index:idx_mapping_delivery_product" json:"deliveryId"`
	ProductID     uint      `gorm:"not null;index:idx_mapping_delivery_product" json:"productId"`
	CustomerID    uint      `gorm:"not null;index" json:"customerId"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	SellingPrice  float64   `gorm:"not null" json:"sellingPrice"`
	TotalAmount   float64   `gorm:"not null" json:"totalAmount"`
	IsCreditSale  bool      `gorm:"not null;default:false" json:"isCreditSale"`
	PaymentMode   string    `gorm:"not null;default:'Cash'" json:"paymentMode"`
	InvoiceNumber string    `json:"invoiceNumber"`
	Remarks       string    `json:"remarks"`
	Customer      Customer  `gorm:"foreignKey:CustomerID" json:"-"`
	Product       Product   `gorm:"foreignKey:ProductID" json:"-"`
}

// Credit transaction types
const (
	CreditTransactionDebit   = "Debit"
	CreditTransactionCredit  = "Credit"
	CreditTransactionPayment = "Payment"
)

// CreditTransaction is one entry in a customer's credit ledger. Credit-sale
// mappings post a Debit; deleting such a mapping posts a compensating Credit;
// customer payments post a Payment.
type CreditTransaction struct {
	ID              uint      `gorm:"primaryKey" json:"transactionId"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	CustomerID      uint      `gorm:"not null;index" json:"customerId"`
	TransactionType string    `gorm:"not null" json:"transactionType"`
	Amount          float64   `gorm:"not null" json:"amount"`
	ReferenceNumber string    `json:"referenceNumber"`
	Description     string    `json:"description"`
	MappingID       *uint     `gorm:"index" json:"mappingId"`
	PaymentMode     string    `json:"paymentMode"`
	Customer        Customer  `gorm:"foreignKey:CustomerID" json:"-"`
}

// ComputePendingQuantity derives the pending quantity of an item line.
// Over-delivery clamps to zero rather than going negative.
func ComputePendingQuantity(planned, delivered int) int {
	pending := planned - delivered
	if pending < 0 {
		return 0
	}
	return pending
}

// DeriveItemStatus derives the reconciliation status of an item line from its
// delivered and pending quantities.
func DeriveItemStatus(delivered, pending int) ItemStatus {
	switch {
	case pending == 0:
		return ItemStatusCompleted
	case delivered > 0:
		return ItemStatusPartial
	default:
		return ItemStatusPending
	}
}

// RemainingQuantity derives how much of a delivered quantity is still
// unallocated to customers.
func RemainingQuantity(delivered, mapped int) int {
	return delivered - mapped
}
