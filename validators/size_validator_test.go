package validators

import (
	"testing"

	"github.com/SoulMinT05/mtshop-frontend/models"
	"github.com/stretchr/testify/assert"
)

func TestValidateSize(t *testing.T) {
	shirt := models.Product{ID: "P1", Sizes: []string{"S", "M", "L"}}

	t.Run("offered size", func(t *testing.T) {
		assert.NoError(t, ValidateSize(shirt, "M"))
	})

	t.Run("size not offered", func(t *testing.T) {
		assert.ErrorIs(t, ValidateSize(shirt, "XXL"), models.ErrInvalidSize)
	})

	t.Run("blank size", func(t *testing.T) {
		assert.ErrorIs(t, ValidateSize(shirt, "  "), models.ErrInvalidSize)
	})

	t.Run("product without size list", func(t *testing.T) {
		assert.NoError(t, ValidateSize(models.Product{ID: "P2"}, "42"))
	})
}
