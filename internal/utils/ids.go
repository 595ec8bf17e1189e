package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID returns "{prefix}_{unixMillis}_{suffix}" where suffix is the
// first eight hex digits of a random UUID.  The timestamp keeps ids
// roughly sortable; the suffix keeps ids created in the same
// millisecond distinct.
func NewID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}
