package directory

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9\-_]`)

// Slug derives a room id from its display name. Names that reduce to nothing
// fall back to room-<unix seconds>.
func Slug(name string, now time.Time) string {
	id := strings.ReplaceAll(strings.ToLower(name), " ", "-")
	id = slugInvalidChars.ReplaceAllString(id, "")
	if id == "" {
		id = fmt.Sprintf("room-%d", now.Unix())
	}
	return id
}
