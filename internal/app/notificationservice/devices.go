package notificationservice

import (
	"sync"
	"time"
)

// Device is a registered notification target: a customer device bound to a
// table, or a staff device bound to a role.
type Device struct {
	ID          string
	Role        string // "customer", "waiter", "kitchen", "manager"
	TableNumber int    // 0 for staff devices
	LastActive  time.Time
}

// DeviceRegistry tracks connected devices in memory. Registrations do not
// survive a restart; devices re-register on reconnect.
type DeviceRegistry struct {
	mu      sync.RWMutex
	devices map[string]Device
}

// NewDeviceRegistry creates an empty registry.
func NewDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{devices: make(map[string]Device)}
}

// Register adds or replaces a device, stamping its activity time.
func (r *DeviceRegistry) Register(d Device) {
	d.LastActive = time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[d.ID] = d
}

// Unregister removes a device; unknown ids are ignored.
func (r *DeviceRegistry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.devices, id)
}

// ForTable returns the customer devices registered for a table.
func (r *DeviceRegistry) ForTable(tableNumber int) []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Device
	for _, d := range r.devices {
		if d.Role == RoleCustomer && d.TableNumber == tableNumber {
			out = append(out, d)
		}
	}
	return out
}

// ForRole returns the devices registered under a role.
func (r *DeviceRegistry) ForRole(role string) []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Device
	for _, d := range r.devices {
		if d.Role == role {
			out = append(out, d)
		}
	}
	return out
}

// Snapshot returns all registered devices.
func (r *DeviceRegistry) Snapshot() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	return out
}
