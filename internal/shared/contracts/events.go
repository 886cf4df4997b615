package contracts

// Event types routed on the restaurant_events exchange. The routing key of a
// published message is always its event type; queues bind with exact matches.
const (
	EventOrderCreated                = "order_created"
	EventOrderUpdated                = "order_updated"
	EventOrderItemUpdated            = "order_item_updated"
	EventPaymentProcessed            = "payment_processed"
	EventMenuUpdated                 = "menu_updated"
	EventMenuItemAvailabilityUpdated = "menu_item_availability_updated"
	EventPromoUpdated                = "promo_updated"
	EventTableAuthenticated          = "table_authenticated"
)
