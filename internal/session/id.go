package session

import (
	"fmt"
	"github.com/google/uuid"
	"strings"
	"time"
)

// NewSessionID returns an id of the form sp-<unixms>-<random>.
func NewSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("sp-%d-%s", now.UnixMilli(), suffix[:12])
}
