package cache

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/beetlebot/booking-cli/internal/config"
	"github.com/beetlebot/booking-cli/internal/core"
)

// GetCalendar implements core.CalendarCache.
func (c *FileCache) GetCalendar(req core.CalendarRequest, mode config.Mode, providers []string, ttl time.Duration) (*core.CalendarResult, bool) {
	data, ok := c.Get(calendarKey(req, mode, providers), ttl)
	if !ok {
		return nil, false
	}
	var result core.CalendarResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (c *FileCache) SetCalendar(req core.CalendarRequest, mode config.Mode, providers []string, result *core.CalendarResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.Set(calendarKey(req, mode, providers), data)
}

func calendarKey(req core.CalendarRequest, mode config.Mode, providers []string) string {
	sorted := append([]string(nil), providers...)
	sort.Strings(sorted)
	return CacheKey(
		"calendar",
		string(mode),
		strings.Join(sorted, ","),
		strings.ToUpper(req.From),
		strings.ToUpper(req.To),
		req.StartDate,
		strconv.Itoa(req.Days),
		strconv.Itoa(req.Adults),
		req.CabinClass,
	)
}
