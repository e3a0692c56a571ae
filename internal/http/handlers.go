package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spendings/internal/core"
	"spendings/internal/log"
)

// GET /api/v1/spendings?userid=&startdate=&enddate=&type=&model=&page=
func (s *Server) handleListSpendings(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		writeError(c, log.OpList, err)
		return
	}
	page, err := parsePage(c)
	if err != nil {
		writeError(c, log.OpList, err)
		return
	}

	res, err := s.svc.ListSpendings(c.Request.Context(), filters, page)
	if err != nil {
		writeError(c, log.OpList, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleGetSpending(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		writeError(c, log.OpRead, err)
		return
	}

	sp, err := s.svc.GetSpending(c.Request.Context(), id)
	if err != nil {
		writeError(c, log.OpRead, err)
		return
	}
	c.JSON(http.StatusOK, sp)
}

func (s *Server) handleCreateSpending(c *gin.Context) {
	var n core.NewSpending
	if err := decodeBody(c, &n); err != nil {
		writeError(c, log.OpCreate, err)
		return
	}
	if err := n.Validate(); err != nil {
		writeError(c, log.OpCreate, err)
		return
	}

	sp, err := s.svc.CreateSpending(c.Request.Context(), n)
	if err != nil {
		writeError(c, log.OpCreate, err)
		return
	}
	c.JSON(http.StatusCreated, sp)
}

// PUT /api/v1/spendings/:id. Absent and null fields are left unchanged.
func (s *Server) handleUpdateSpending(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		writeError(c, log.OpUpdate, err)
		return
	}
	var u core.SpendingUpdate
	if err := decodeBody(c, &u); err != nil {
		writeError(c, log.OpUpdate, err)
		return
	}
	if err := u.Validate(); err != nil {
		writeError(c, log.OpUpdate, err)
		return
	}

	sp, err := s.svc.UpdateSpending(c.Request.Context(), id, u)
	if err != nil {
		writeError(c, log.OpUpdate, err)
		return
	}
	c.JSON(http.StatusOK, sp)
}

func (s *Server) handleDeleteSpending(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		writeError(c, log.OpDelete, err)
		return
	}

	if err := s.svc.DeleteSpending(c.Request.Context(), id); err != nil {
		writeError(c, log.OpDelete, err)
		return
	}
	c.Status(http.StatusNoContent)
}
