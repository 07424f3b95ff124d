package auth

import (
	"encoding/json"
	"sync"
)

// Capability is a single permission bit for a resource.
type Capability int

// Capability bits. All is a sentinel that grants every capability on the
// resource; it is not a union of the other bits.
const (
	CapabilityView   Capability = 1
	CapabilityCreate Capability = 2
	CapabilityUpdate Capability = 4
	CapabilityDelete Capability = 8
	CapabilityAll    Capability = 16
)

// HasCapability reports whether a permission mask grants the required
// capability. A mask carrying the All bit grants everything.
func HasCapability(mask int, required Capability) bool {
	if mask&int(CapabilityAll) == int(CapabilityAll) {
		return true
	}
	return mask&int(required) == int(required)
}

// MaskFromFlags composes a permission mask from the boolean capability flags
// stored per (role, resource) row.
func MaskFromFlags(canView, canCreate, canUpdate, canDelete bool) int {
	mask := 0
	if canView {
		mask |= int(CapabilityView)
	}
	if canCreate {
		mask |= int(CapabilityCreate)
	}
	if canUpdate {
		mask |= int(CapabilityUpdate)
	}
	if canDelete {
		mask |= int(CapabilityDelete)
	}
	return mask
}

// Resource keys the route guard and the permission seeding agree on.
const (
	ResourceUsers             = "Users"
	ResourceRoles             = "Roles"
	ResourceDailyDelivery     = "DailyDelivery"
	ResourceDeliveryMapping   = "DeliveryMapping"
	ResourceCustomerCredit    = "CustomerCredit"
	ResourcePurchaseEntry     = "PurchaseEntry"
	ResourceStockRegister     = "StockRegister"
	ResourceVehicleAssignment = "VehicleAssignment"
)

// ResourcePermission is the wire representation of one resource's mask.
type ResourcePermission struct {
	ResourceKey    string `json:"resourceKey"`
	PermissionMask int    `json:"permissionMask"`
}

// PermissionSet holds the permission masks of a single session, keyed by
// resource. Lookups are fail-closed: an unknown resource has mask 0.
type PermissionSet struct {
	mu    sync.RWMutex
	masks map[string]int
}

// NewPermissionSet builds a set from a fetched permission list.
func NewPermissionSet(perms []ResourcePermission) *PermissionSet {
	s := &PermissionSet{masks: make(map[string]int, len(perms))}
	for _, p := range perms {
		s.masks[p.ResourceKey] = p.PermissionMask
	}
	return s
}

// MaskFor returns the mask for a resource, or 0 when the resource is unknown.
// It never fails.
func (s *PermissionSet) MaskFor(resourceKey string) int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.masks[resourceKey]
}

// Has reports whether the set grants the capability on the resource.
func (s *PermissionSet) Has(resourceKey string, required Capability) bool {
	return HasCapability(s.MaskFor(resourceKey), required)
}

// Load replaces the set's contents with a freshly fetched permission list.
func (s *PermissionSet) Load(perms []ResourcePermission) {
	masks := make(map[string]int, len(perms))
	for _, p := range perms {
		masks[p.ResourceKey] = p.PermissionMask
	}
	s.mu.Lock()
	s.masks = masks
	s.mu.Unlock()
}

// Clear empties the set. Used at logout.
func (s *PermissionSet) Clear() {
	s.mu.Lock()
	s.masks = make(map[string]int)
	s.mu.Unlock()
}

// List returns the set as a permission list, for responses and caching.
func (s *PermissionSet) List() []ResourcePermission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perms := make([]ResourcePermission, 0, len(s.masks))
	for key, mask := range s.masks {
		perms = append(perms, ResourcePermission{ResourceKey: key, PermissionMask: mask})
	}
	return perms
}

// MarshalJSON serializes the set as a permission list. This is the durable
// cache boundary.
func (s *PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON restores the set from its cached list form.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var perms []ResourcePermission
	if err := json.Unmarshal(data, &perms); err != nil {
		return err
	}
	s.Load(perms)
	return nil
}
