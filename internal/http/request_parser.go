package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"spendings/internal/core"
)

// maxBodyBytes bounds create and update payloads.
const maxBodyBytes = 64 << 10

// badRequest marks errors caused by the request itself.
type badRequest struct {
	msg string
}

func (e *badRequest) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

// parseID reads the :id path parameter as a positive integer.
func parseID(c *gin.Context) (int64, error) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("invalid id %q", raw)
	}
	return id, nil
}

// parsePage reads the page query parameter, defaulting to 1.
func parsePage(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query(core.ParamPage))
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid("invalid page %q", raw)
	}
	if page < 1 {
		page = 1
	}
	return page, nil
}

func parseFilters(c *gin.Context) (core.Filters, error) {
	f, err := core.ParseFilters(c.Request.URL.Query())
	if err != nil {
		return core.Filters{}, invalid("invalid filters: %v", err)
	}
	return f, nil
}

// decodeBody decodes a size limited JSON body into dst.
func decodeBody(c *gin.Context, dst any) error {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return invalid("request body too large")
		case errors.Is(err, io.EOF):
			return invalid("request body is empty")
		default:
			return invalid("invalid JSON body: %v", err)
		}
	}
	return nil
}
