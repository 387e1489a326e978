package messaging

// TopicOrderPaid carries one event per settled payment. The notifier
// worker consumes it to email the shop owner.
const TopicOrderPaid = "order.paid"
