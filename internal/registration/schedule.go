package registration

import (
	"fmt"
	"strconv"
	"strings"
)

// EndTime adds a training duration in minutes to a "HH:mm" start time.
// A start time that doesn't parse comes back unchanged; bad documents
// should not take the group listing down.
func EndTime(start string, durationMinutes int) string {
	parts := strings.SplitN(start, ":", 2)
	if len(parts) != 2 {
		return start
	}
	hours, err1 := strconv.Atoi(parts[0])
	minutes, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return start
	}
	total := hours*60 + minutes + durationMinutes
	return fmt.Sprintf("%02d:%02d", (total/60)%24, total%60)
}
