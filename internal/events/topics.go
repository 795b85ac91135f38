package events

// Topics emitted by the storefront backend.
const (
	TopicOrderCreated         = "order.created"
	TopicOrderPaid            = "order.paid"
	TopicPaymentFailed        = "payment.failed"
	TopicContactReceived      = "contact.received"
	TopicTestimonialSubmitted = "testimonial.submitted"
	TopicSellerFollowed       = "seller.followed"
)
