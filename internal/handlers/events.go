package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	lf "lost_and_found"
	"lost_and_found/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid  = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid    = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errLimitInvalid = "invalid 'limit'; use an integer between 1 and 500"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"

	maxEventsLimit = 500
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List audit events
// @Description  Filter auth events by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). A date-only 'to' is end-of-day inclusive.
// @Tags         admin
// @Produce      json
// @Param        from   query     string  false  "Start of range"  example(2025-08-01)
// @Param        to     query     string  false  "End of range. Date-only treated as end of day."  example(2025-08-31)
// @Param        type   query     string  false  "Event type"  Enums(SIGN_UP,VERIFY,LOGIN,LOGIN_FAILED,NOTIFY_FAILED)
// @Param        limit  query     int     false  "Maximum number of events"  minimum(1) maximum(500)
// @Success      200    {object}  lost_and_found.EventsResponse
// @Failure      400    {object}  lost_and_found.ErrorResponse
// @Failure      401    {object}  lost_and_found.ErrorResponse
// @Failure      403    {object}  lost_and_found.ErrorResponse
// @Failure      500    {object}  lost_and_found.ErrorResponse
// @Router       /api/v1/admin/events [get]
// @Security     CookieAuth
// @Security     BearerAuth
func (h *Handler) listEvents(c *gin.Context) {
	var (
		f   = service.LogFilter{Type: c.Query("type")}
		err error
	)
	if qs := c.Query("from"); qs != "" {
		if f.From, err = parseQueryTime(qs); err != nil {
			h.badRequest(c, errFromInvalid)
			return
		}
	}
	if qs := c.Query("to"); qs != "" {
		if f.To, err = parseQueryTime(qs); err != nil {
			h.badRequest(c, errToInvalid)
			return
		}
		if isDateOnly(qs) {
			f.To = f.To.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}
	if qs := c.Query("limit"); qs != "" {
		n, convErr := strconv.Atoi(qs)
		if convErr != nil || n < 1 || n > maxEventsLimit {
			h.badRequest(c, errLimitInvalid)
			return
		}
		f.Limit = n
	}

	events, err := h.services.EventLog.List(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err, "events_list_failed", "from", f.From, "to", f.To, "type", f.Type)
		return
	}
	c.JSON(http.StatusOK, lf.EventsResponse{Count: len(events), Events: events})
}

func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf(
		"invalid time format %q, expected one of: "+
			"RFC3339 (e.g. 2025-08-27T15:04:05Z), "+
			"'YYYY-MM-DD HH:MM:SS', "+
			"'YYYY-MM-DD'",
		s,
	)
}
