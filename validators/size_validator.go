package validators

import (
	"fmt"
	"strings"

	"github.com/SoulMinT05/mtshop-frontend/models"
)

// ValidateSize checks that size can be picked for product.
// A product without a size list accepts any non-blank size.
func ValidateSize(product models.Product, size string) error {
	if strings.TrimSpace(size) == "" {
		return fmt.Errorf("%w: blank size", models.ErrInvalidSize)
	}
	if len(product.Sizes) == 0 || product.HasSize(size) {
		return nil
	}
	return fmt.Errorf("%w: %q not in %v", models.ErrInvalidSize, size, product.Sizes)
}
