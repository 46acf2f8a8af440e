package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateBookingNumber builds a human-readable booking identifier,
// e.g. BK-20250601-3F2A9C1B.
func GenerateBookingNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("BK-%s-%s", now.Format("20060102"), suffix)
}
