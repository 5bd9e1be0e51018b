package orders

import (
	"fmt"
	"regexp"
	"time"
)

// codePattern matches the canonical order code shape.
var codePattern = regexp.MustCompile(`^FP-\d{8}-\d{6}$`)

// BuildCode formats an order code from the placement date and the caller's
// per-user sequence number.
func BuildCode(at time.Time, seq int64) string {
	return fmt.Sprintf("FP-%s-%06d", at.Format("20060102"), seq)
}

// ValidCode reports whether the code matches the canonical shape.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}
