package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation")              // 400
	ErrInvalidCredentials = errors.New("invalid credentials")     // 401
	ErrForbidden          = errors.New("forbidden")               // 403
	ErrNotFound           = errors.New("not found")               // 404
	ErrConflict           = errors.New("conflict")                // 409
	ErrAlreadyPaid        = errors.New("order already paid")      // 409
	ErrAlreadyDelivered   = errors.New("order already delivered") // 409

	// ErrOutOfStock is a validation failure: errors.Is(ErrOutOfStock, ErrValidation).
	ErrOutOfStock = fmt.Errorf("%w: out of stock", ErrValidation)
)
