package errlog

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a unique identifier made of the creation time in milliseconds and a random suffix,
// e.g. "error_1700000000000_3f2a9c1de".
func NewID(prefix string, now time.Time) string {
	return prefix + "_" + strconv.FormatInt(now.UnixNano()/int64(time.Millisecond), 10) + "_" + randomSuffix()
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}
