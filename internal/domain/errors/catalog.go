package errors

import "net/http"

// Catalogue of domain errors. Use WithDetails to attach request specific context;
// errors.Is still matches the catalogue entry.
var (
	// User
	ErrUserNotFound        = define(http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	ErrUserAlreadyExists   = define(http.StatusConflict, "USER_ALREADY_EXISTS", "This email is already registered")
	ErrUserCreationFailed  = define(http.StatusInternalServerError, "USER_CREATION_FAILED", "Failed to create user")
	ErrUserBanned          = define(http.StatusForbidden, "USER_BANNED", "This account has been suspended")
	ErrReferralCodeInvalid = define(http.StatusBadRequest, "REFERRAL_CODE_INVALID", "Referral code does not exist")

	// Authentication
	ErrAuthRequired       = define(http.StatusUnauthorized, "AUTH_REQUIRED", "Authentication required")
	ErrInvalidCredentials = define(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
	ErrPasswordHashFailed = define(http.StatusInternalServerError, "PASSWORD_HASH_FAILED", "Password processing failed")

	// Validation
	ErrValidationFailed = define(http.StatusBadRequest, "VALIDATION_FAILED", "Input validation failed")

	// Item
	ErrItemNotFound           = define(http.StatusNotFound, "ITEM_NOT_FOUND", "Item not found")
	ErrInvalidStateTransition = define(http.StatusConflict, "INVALID_STATE_TRANSITION", "The item cannot move to the requested state")
	ErrInvalidAppraisal       = define(http.StatusBadRequest, "INVALID_APPRAISAL", "Appraised value must be a positive integer")
	ErrOwnItem                = define(http.StatusBadRequest, "OWN_ITEM", "You cannot buy your own item")

	// Checkout
	ErrCartEmpty              = define(http.StatusBadRequest, "CART_EMPTY", "Your cart is empty")
	ErrInvalidDelivery        = define(http.StatusBadRequest, "INVALID_DELIVERY", "Delivery details are invalid")
	ErrOrderNotFound          = define(http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
	ErrInvalidOrderTransition = define(http.StatusConflict, "INVALID_ORDER_TRANSITION", "The order cannot move to the requested status")

	// Wishlist
	ErrSubscriptionNotFound = define(http.StatusNotFound, "SUBSCRIPTION_NOT_FOUND", "Wishlist entry not found")

	// Notification
	ErrNotificationNotFound = define(http.StatusNotFound, "NOTIFICATION_NOT_FOUND", "Notification not found")
	ErrEmailSendFailed      = define(http.StatusBadGateway, "EMAIL_SEND_FAILED", "Email delivery failed")

	// Device
	ErrDeviceNotFound = define(http.StatusNotFound, "DEVICE_NOT_FOUND", "Device not found")

	// Transaction
	ErrTransactionFailed = define(http.StatusInternalServerError, "TRANSACTION_FAILED", "Database transaction failed")

	// General
	ErrInternalError = define(http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	ErrForbidden     = define(http.StatusForbidden, "FORBIDDEN", "Access denied")
	ErrNotFound      = define(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrConflict      = define(http.StatusConflict, "CONFLICT", "Resource conflict")
)
