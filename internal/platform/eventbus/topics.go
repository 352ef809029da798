package eventbus

// Topic names for the Event Fabric, per §4.4. Customer events are
// owned by the customer service; account and movement events by the
// account service.
const (
	TopicCustomerEvents = "banking.customer.events"
	TopicAccountEvents  = "banking.account.events"
	TopicMovementEvents = "banking.movement.events"
)

// Event type discriminators, using the domain.verb form §4.4 requires.
const (
	EventCustomerCreated = "customer.created"
	EventCustomerUpdated = "customer.updated"
	EventCustomerDeleted = "customer.deleted"
	EventAccountCreated  = "account.created"
	EventAccountUpdated  = "account.updated"
	EventAccountDeleted  = "account.deleted"
	EventMovementCreated = "movement.created"
)

const SchemaVersion = "1"
