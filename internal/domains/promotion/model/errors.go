package model

import "errors"

var (
	ErrInvalidDiscountType  = errors.New("invalid discount type")
	ErrUsageAlreadyRecorded = errors.New("promo usage already recorded for this booking")
)

type ErrorCode string

const (
	// Validation step errors, one per step so callers can tell a dead
	// code from an exhausted one
	ErrCodePromoNotFound           ErrorCode = "PROMO_NOT_FOUND"            // 404
	ErrCodePromoInactive           ErrorCode = "PROMO_INACTIVE"             // 400
	ErrCodePromoNotStarted         ErrorCode = "PROMO_NOT_STARTED"          // 400
	ErrCodePromoExpired            ErrorCode = "PROMO_EXPIRED"              // 400
	ErrCodePromoUsageLimitExceeded ErrorCode = "PROMO_USAGE_LIMIT_EXCEEDED" // 409
	ErrCodePromoUserLimitExceeded  ErrorCode = "PROMO_USER_LIMIT_EXCEEDED"  // 409
	ErrCodePromoMinAmountNotMet    ErrorCode = "PROMO_MIN_AMOUNT_NOT_MET"   // 400
	ErrCodePromoServiceNotEligible ErrorCode = "PROMO_SERVICE_NOT_ELIGIBLE" // 400
	ErrCodePromoProviderMismatch   ErrorCode = "PROMO_PROVIDER_MISMATCH"    // 400

	// Admin operation errors
	ErrCodePromoDuplicateCode  ErrorCode = "VAL_DUPLICATE_CODE"  // 409
	ErrCodePromoDuplicateUsage ErrorCode = "BIZ_DUPLICATE_USAGE" // 409

	// Validation errors (400)
	ErrCodeValidationFailed ErrorCode = "VAL_INVALID_INPUT" // 400

	// System errors (500)
	ErrCodeInternalError ErrorCode = "SYS_INTERNAL_ERROR" // 500
)

type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Predefined errors, one per validation step. First failure wins.
var (
	ErrPromoNotFound = &AppError{
		Code:       ErrCodePromoNotFound,
		Message:    "Promo code does not exist or has been removed",
		HTTPStatus: 404,
	}

	ErrPromoInactive = &AppError{
		Code:       ErrCodePromoInactive,
		Message:    "Promo code is not active",
		HTTPStatus: 400,
	}

	ErrPromoNotStarted = &AppError{
		Code:       ErrCodePromoNotStarted,
		Message:    "Promo code is not valid yet",
		HTTPStatus: 400,
	}

	ErrPromoExpired = &AppError{
		Code:       ErrCodePromoExpired,
		Message:    "Promo code has expired",
		HTTPStatus: 400,
	}

	ErrPromoUsageLimitExceeded = &AppError{
		Code:       ErrCodePromoUsageLimitExceeded,
		Message:    "Promo code usage limit has been reached",
		HTTPStatus: 409,
	}

	ErrPromoUserLimitExceeded = &AppError{
		Code:       ErrCodePromoUserLimitExceeded,
		Message:    "You have already used this promo code the maximum number of times",
		HTTPStatus: 409,
	}

	ErrPromoMinAmountNotMet = &AppError{
		Code:       ErrCodePromoMinAmountNotMet,
		Message:    "Booking amount is below the promo code minimum",
		HTTPStatus: 400,
	}

	ErrPromoServiceNotEligible = &AppError{
		Code:       ErrCodePromoServiceNotEligible,
		Message:    "Promo code is not applicable to the booked services",
		HTTPStatus: 400,
	}

	ErrPromoProviderMismatch = &AppError{
		Code:       ErrCodePromoProviderMismatch,
		Message:    "Promo code belongs to a different provider",
		HTTPStatus: 400,
	}

	ErrPromoDuplicateCode = &AppError{
		Code:       ErrCodePromoDuplicateCode,
		Message:    "A promo code with this code already exists",
		HTTPStatus: 409,
	}
)
