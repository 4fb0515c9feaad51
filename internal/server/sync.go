package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	reconciledomain "github.com/smallbiznis/hourdesk/internal/reconcile/domain"
)

// RunClockifySync reconciles billable hours for the current calendar year.
// The run is synchronous; the response carries the structured report plus a
// human-readable message.
func (s *Server) RunClockifySync(c *gin.Context) {
	report, err := s.reconcileSvc.Run(c.Request.Context(), reconciledomain.RunRequest{})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	message := fmt.Sprintf("Synced %d customers with billable hours from Clockify", report.UpdatedCount)
	if len(report.UnmatchedClients) > 0 {
		message += fmt.Sprintf("; %d client(s) had no matching customer", len(report.UnmatchedClients))
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    report,
		"message": message,
	})
}

func (s *Server) ListClockifySyncRuns(c *gin.Context) {
	limit := 20
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
			return
		}
		limit = parsed
	}

	runs, err := s.reconcileSvc.ListRuns(c.Request.Context(), reconciledomain.ListRunsRequest{Limit: limit})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"runs": runs}})
}
