package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// UserIDHeader carries the authenticated caller's identity, resolved by the
// edge proxy before requests reach this service.
const UserIDHeader = "X-User-ID"

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	value := c.Param(name)
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}

func actorID(c *gin.Context) (int64, bool) {
	value := c.GetHeader(UserIDHeader)
	if value == "" {
		respondError(c, http.StatusUnauthorized, errors.New("missing "+UserIDHeader+" header"))
		return 0, false
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusUnauthorized, errors.New("invalid "+UserIDHeader+" header"))
		return 0, false
	}
	return id, true
}

func parsePageParams(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}
