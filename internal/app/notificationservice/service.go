package notificationservice

import (
	"context"

	"dinesync/internal/shared/contracts"
	"dinesync/internal/shared/eventbus"
	"dinesync/internal/shared/logger"
)

// Device roles.
const (
	RoleCustomer = "customer"
	RoleWaiter   = "waiter"
	RoleKitchen  = "kitchen"
	RoleManager  = "manager"
)

// Emitter pushes a notification to devices. LogEmitter is the default; a
// websocket emitter would satisfy the same interface.
type Emitter interface {
	Broadcast(event string, data map[string]any)
	Emit(deviceID, event string, data map[string]any)
}

// LogEmitter writes every notification to the structured log instead of a
// live push channel.
type LogEmitter struct {
	logger *logger.Logger
}

func NewLogEmitter(log *logger.Logger) *LogEmitter {
	return &LogEmitter{logger: log}
}

func (e *LogEmitter) Broadcast(event string, data map[string]any) {
	e.logger.Info(context.Background(), "notify_broadcast", "broadcast notification", map[string]any{
		"event": event,
		"data":  data,
	})
}

func (e *LogEmitter) Emit(deviceID, event string, data map[string]any) {
	e.logger.Info(context.Background(), "notify_device", "device notification", map[string]any{
		"device_id": deviceID,
		"event":     event,
		"data":      data,
	})
}

// Service fans bus events out to registered devices.
type Service struct {
	registry *DeviceRegistry
	emitter  Emitter
	logger   *logger.Logger
}

// New creates the notification service.
func New(registry *DeviceRegistry, emitter Emitter, log *logger.Logger) *Service {
	return &Service{
		registry: registry,
		emitter:  emitter,
		logger:   log,
	}
}

// RegisterEventHandlers subscribes the fan-out handlers for every event type
// this service relays.
func (service *Service) RegisterEventHandlers(reg *eventbus.Registry) {
	reg.Register(contracts.EventOrderCreated, service.handleOrderCreated)
	reg.Register(contracts.EventOrderUpdated, service.handleOrderUpdated)
	reg.Register(contracts.EventOrderItemUpdated, service.handleOrderItemUpdated)
	reg.Register(contracts.EventPaymentProcessed, service.handlePaymentProcessed)
	reg.Register(contracts.EventMenuUpdated, service.handleMenuUpdated)
	reg.Register(contracts.EventMenuItemAvailabilityUpdated, service.handleMenuAvailabilityUpdated)
	reg.Register(contracts.EventPromoUpdated, service.handlePromoUpdated)
	reg.Register(contracts.EventTableAuthenticated, service.handleTableAuthenticated)
}

// handleOrderCreated tells staff about the new order and the table's own
// devices that their order list changed.
func (service *Service) handleOrderCreated(ctx context.Context, payload map[string]any) error {
	service.emitter.Broadcast("new_order", payload)
	service.notifyTable(payloadInt(payload, "table_number"), "order_updated", payload)
	return nil
}

func (service *Service) handleOrderUpdated(ctx context.Context, payload map[string]any) error {
	service.emitter.Broadcast("order_updated", payload)
	return nil
}

func (service *Service) handleOrderItemUpdated(ctx context.Context, payload map[string]any) error {
	service.emitter.Broadcast("order_updated", payload)
	return nil
}

// handlePaymentProcessed refreshes staff views and tells the paying table.
func (service *Service) handlePaymentProcessed(ctx context.Context, payload map[string]any) error {
	service.emitter.Broadcast("order_updated", payload)
	service.notifyTable(payloadInt(payload, "table_number"), "payment_completed", payload)
	return nil
}

func (service *Service) handleMenuUpdated(ctx context.Context, payload map[string]any) error {
	service.emitter.Broadcast("menu_updated", payload)
	return nil
}

func (service *Service) handleMenuAvailabilityUpdated(ctx context.Context, payload map[string]any) error {
	service.emitter.Broadcast("menu_updated", payload)
	return nil
}

func (service *Service) handlePromoUpdated(ctx context.Context, payload map[string]any) error {
	service.emitter.Broadcast("promo_updated", payload)
	return nil
}

func (service *Service) handleTableAuthenticated(ctx context.Context, payload map[string]any) error {
	service.logger.Info(ctx, "table_authenticated", "table session opened", map[string]any{
		"table_number": payload["table_number"],
	})
	return nil
}

// NotifyTable pushes an ad-hoc event to a table's customer devices.
func (service *Service) NotifyTable(tableNumber int, event string, data map[string]any) int {
	return service.notifyTable(tableNumber, event, data)
}

// NotifyRole pushes an ad-hoc event to every device of a role.
func (service *Service) NotifyRole(role, event string, data map[string]any) int {
	devices := service.registry.ForRole(role)
	for _, d := range devices {
		service.emitter.Emit(d.ID, event, data)
	}
	return len(devices)
}

func (service *Service) notifyTable(tableNumber int, event string, data map[string]any) int {
	if tableNumber < 1 {
		return 0
	}
	devices := service.registry.ForTable(tableNumber)
	for _, d := range devices {
		service.emitter.Emit(d.ID, event, data)
	}
	return len(devices)
}

// payloadInt reads an integer out of a decoded JSON payload, where numbers
// arrive as float64.
func payloadInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}
