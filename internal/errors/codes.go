package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL. The storefront UI maps these to copy.

const (
	// ==================== Cart (CART_) ====================
	CartItemNotFound  = "CART_ITEM_NOT_FOUND"
	CartOutOfStock    = "CART_OUT_OF_STOCK"
	CartEmpty         = "CART_EMPTY"
	CartSessionAbsent = "CART_SESSION_MISSING"

	// ==================== Catalog (CATALOG_) ====================
	CatalogProductNotFound = "CATALOG_PRODUCT_NOT_FOUND"
	CatalogVariantNotFound = "CATALOG_VARIANT_NOT_FOUND"

	// ==================== Checkout (CHECKOUT_) ====================
	CheckoutPaymentFailed  = "CHECKOUT_PAYMENT_FAILED"
	CheckoutOrderFailed    = "CHECKOUT_ORDER_FAILED"
	CheckoutMissingSession = "CHECKOUT_MISSING_SESSION"

	// ==================== Content (CONTENT_) ====================
	ContentNotFound = "CONTENT_NOT_FOUND"

	// ==================== Webhook (WEBHOOK_) ====================
	WebhookUnauthorized = "WEBHOOK_UNAUTHORIZED"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
