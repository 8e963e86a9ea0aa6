package receipt

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forkful/internal/domain"
	dErrors "forkful/pkg/domain-errors"
)

func pickupOrder() domain.Order {
	return domain.Order{
		ID:           42,
		OrderNumber:  "ORD-20250101-42",
		DeliveryType: domain.DeliveryTypePickup,
		Status:       domain.OrderStatusPreparing,
	}
}

func TestPickupQR(t *testing.T) {
	t.Run("renders a png of the requested size", func(t *testing.T) {
		data, err := PickupQR(pickupOrder(), 128)
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 128, img.Bounds().Dx())
	})

	t.Run("zero size uses default", func(t *testing.T) {
		data, err := PickupQR(pickupOrder(), 0)
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, DefaultSize, img.Bounds().Dx())
	})

	t.Run("delivery order is rejected", func(t *testing.T) {
		o := pickupOrder()
		o.DeliveryType = domain.DeliveryTypeDelivery

		_, err := PickupQR(o, 128)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("cancelled order is rejected", func(t *testing.T) {
		o := pickupOrder()
		o.Status = domain.OrderStatusCancelled

		_, err := PickupQR(o, 128)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("size out of range", func(t *testing.T) {
		_, err := PickupQR(pickupOrder(), 10)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	})
}

func TestWritePickupQR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pickup.png")

	require.NoError(t, WritePickupQR(pickupOrder(), 0, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestPickupText(t *testing.T) {
	text, err := PickupText(pickupOrder())
	require.NoError(t, err)
	assert.NotEmpty(t, text)
	assert.Equal(t, "forkful:pickup:42:ORD-20250101-42", Payload(pickupOrder()))
}
