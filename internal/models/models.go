package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an application user account
type User struct {
	ID           uint           `gorm:"primaryKey" json:"userId"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Username     string         `gorm:"not null;uniqueIndex" json:"username"`
	Email        string         `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	RoleID       uint           `gorm:"not null;index" json:"roleId"`
	IsActive     bool           `gorm:"not null;default:true" json:"isActive"`
	Role         Role           `gorm:"foreignKey:RoleID" json:"-"`
}

// Role groups users for permission assignment
type Role struct {
	ID          uint           `gorm:"primaryKey" json:"roleId"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"not null;uniqueIndex" json:"roleName"`
	Description string         `json:"description"`
	Users       []User         `gorm:"foreignKey:RoleID" json:"-"`
}

// Resource is a named feature area permissions are scoped to,
// e.g. "Users", "DailyDelivery", "DeliveryMapping".
type Resource struct {
	ID          uint      `gorm:"primaryKey" json:"resourceId"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	ResourceKey string    `gorm:"not null;uniqueIndex" json:"resourceKey"`
	DisplayName string    `json:"displayName"`
}

// RolePermission stores the capability flags granted to a role on a resource.
// The flags are composed into a bitmask when permissions are served.
type RolePermission struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	RoleID     uint      `gorm:"not null;uniqueIndex:ux_role_resource" json:"roleId"`
	ResourceID uint      `gorm:"not null;uniqueIndex:ux_role_resource" json:"resourceId"`
	CanView    bool      `gorm:"not null;default:false" json:"canView"`
	CanCreate  bool      `gorm:"not null;default:false" json:"canCreate"`
	CanUpdate  bool      `gorm:"not null;default:false" json:"canUpdate"`
	CanDelete  bool      `gorm:"not null;default:false" json:"canDelete"`
	Role       Role      `gorm:"foreignKey:RoleID" json:"-"`
	Resource   Resource  `gorm:"foreignKey:ResourceID" json:"-"`
}

// Vehicle represents a delivery vehicle
type Vehicle struct {
	ID            uint           `gorm:"primaryKey" json:"vehicleId"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	VehicleNumber string         `gorm:"not null;uniqueIndex" json:"vehicleNumber"`
	Capacity      int            `json:"capacity"`
	IsActive      bool           `gorm:"not null;default:true" json:"isActive"`
}

// Driver represents a delivery driver
type Driver struct {
	ID            uint           `gorm:"primaryKey" json:"driverId"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Name          string         `gorm:"not null" json:"driverName"`
	Phone         string         `json:"phone"`
	LicenseNumber string         `json:"licenseNumber"`
	IsActive      bool           `gorm:"not null;default:true" json:"isActive"`
}

// Product represents a sellable product, typically a cylinder variant
type Product struct {
	ID           uint           `gorm:"primaryKey" json:"productId"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"not null" json:"productName"`
	CategoryName string         `gorm:"not null;index" json:"categoryName"`
	UnitPrice    float64        `gorm:"not null" json:"unitPrice"`
	IsActive     bool           `gorm:"not null;default:true" json:"isActive"`
}

// Customer represents a buyer, either cash or credit
type Customer struct {
	ID          uint           `gorm:"primaryKey" json:"customerId"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"not null" json:"customerName"`
	Phone       string         `json:"phone"`
	Address     string         `json:"address"`
	CreditLimit float64        `gorm:"not null;default:0" json:"creditLimit"`
	IsActive    bool           `gorm:"not null;default:true" json:"isActive"`
}

// SetupModels runs migrations for all models
func SetupModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Role{},
		&Resource{},
		&RolePermission{},
		&Vehicle{},
		&Driver{},
		&Product{},
		&Customer{},
		&Vendor{},
		&DailyDelivery{},
		&DeliveryItem{},
		&DeliveryItemActual{},
		&CustomerCylinderMapping{},
		&CreditTransaction{},
		&PurchaseEntry{},
		&PurchaseEntryItem{},
		&StockRegister{},
		&StockTransaction{},
		&VehicleAssignment{},
	)
}
