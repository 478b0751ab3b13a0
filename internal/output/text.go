package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beetlebot/booking-cli/internal/core"
)

// Text prints the series and the recommended day for humans.
func Text(prices []float64, rec *core.Recommendation) error {
	if _, err := fmt.Fprintf(Writer, "Prices: [%s]\n", joinPrices(prices)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(Writer, "Recommended booking day (0-based):", rec.Day); err != nil {
		return err
	}
	if rec.Fallback {
		_, err := fmt.Fprintf(Writer, "No day within tolerance %.2f; falling back to the cheapest day (%.2f)\n", rec.Tolerance, rec.MinPrice)
		return err
	}
	if rec.DaysEarlier > 0 {
		_, err := fmt.Fprintf(Writer, "Booking %d day(s) before the cheapest day costs %.2f more\n", rec.DaysEarlier, rec.ExtraCost)
		return err
	}
	return nil
}

func joinPrices(prices []float64) string {
	parts := make([]string, len(prices))
	for i, p := range prices {
		parts[i] = strconv.FormatFloat(p, 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}
