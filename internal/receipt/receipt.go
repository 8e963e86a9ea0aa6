// Package receipt renders the code a customer shows at the counter when
// collecting a pickup order.
package receipt

import (
	"fmt"
	"os"
	"strings"

	"github.com/skip2/go-qrcode"

	"forkful/internal/domain"
	dErrors "forkful/pkg/domain-errors"
)

const (
	DefaultSize = 256
	minSize     = 64
	maxSize     = 1024
)

// Payload is the text encoded in the pickup code.
func Payload(order domain.Order) string {
	return fmt.Sprintf("forkful:pickup:%d:%s", order.ID, order.OrderNumber)
}

// PickupQR returns a PNG QR code for a pickup order. Delivery orders and
// cancelled orders have nothing to collect.
func PickupQR(order domain.Order, size int) ([]byte, error) {
	if err := checkPickup(order); err != nil {
		return nil, err
	}
	if size == 0 {
		size = DefaultSize
	}
	if size < minSize || size > maxSize {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("size must be between %d and %d pixels", minSize, maxSize))
	}
	png, err := qrcode.Encode(Payload(order), qrcode.Medium, size)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render pickup code")
	}
	return png, nil
}

// WritePickupQR renders the code to path with 0644 permissions.
func WritePickupQR(order domain.Order, size int, path string) error {
	png, err := PickupQR(order, size)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("write pickup code: %w", err)
	}
	return nil
}

// PickupText renders the code as terminal art.
func PickupText(order domain.Order) (string, error) {
	if err := checkPickup(order); err != nil {
		return "", err
	}
	q, err := qrcode.New(Payload(order), qrcode.Medium)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to render pickup code")
	}
	return strings.TrimRight(q.ToSmallString(false), "\n"), nil
}

func checkPickup(order domain.Order) error {
	if order.DeliveryType != domain.DeliveryTypePickup {
		return dErrors.New(dErrors.CodeBadRequest, "order is not a pickup order")
	}
	if order.Status == domain.OrderStatusCancelled {
		return dErrors.New(dErrors.CodeBadRequest, "order was cancelled")
	}
	if order.OrderNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "order number is required")
	}
	return nil
}
