// Package barcode turns raw scanner input into a structured scan intent.
// Parsing is purely structural; whether the SKU or operation exists is
// decided later by rate resolution.
package barcode

import (
	"errors"
	"fmt"
	"strings"
)

// Delimiter separates the four barcode fields. A literal pipe inside a
// field is not representable.
const Delimiter = "|"

var ErrMalformedBarcode = errors.New("malformed barcode: expected MO|SKU|UNIT|OPERATION")

// ScanIntent is the unvalidated result of splitting a barcode string.
type ScanIntent struct {
	MO        string `json:"mo"`
	SKU       string `json:"sku"`
	Unit      string `json:"unit"`
	Operation string `json:"operation"`
}

// String re-joins the intent in barcode field order.
func (in ScanIntent) String() string {
	return strings.Join([]string{in.MO, in.SKU, in.Unit, in.Operation}, Delimiter)
}

// Parse splits raw scan text into a ScanIntent. The whole input is trimmed
// before splitting; each of the four fields must be non-empty.
func Parse(text string) (ScanIntent, error) {
	parts := strings.Split(strings.TrimSpace(text), Delimiter)
	if len(parts) != 4 {
		return ScanIntent{}, fmt.Errorf("%w: got %d fields", ErrMalformedBarcode, len(parts))
	}
	for _, p := range parts {
		if p == "" {
			return ScanIntent{}, fmt.Errorf("%w: empty field", ErrMalformedBarcode)
		}
	}

	return ScanIntent{
		MO:        parts[0],
		SKU:       parts[1],
		Unit:      parts[2],
		Operation: parts[3],
	}, nil
}
