package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campussecurity/internal/model"
)

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.d.Records.Dashboard(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.d.Records.Students.GetAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

func (h *Handler) GetStudent(c *gin.Context) {
	s, err := h.d.Records.Students.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
		return
	}
	c.JSON(http.StatusOK, s)
}

type recognizeRequest struct {
	Image string `json:"image" binding:"required"`
}

// Recognize identifies a student from a captured frame (base64 data URL).
func (h *Handler) Recognize(c *gin.Context) {
	var req recognizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "image is required")
		return
	}
	res, err := h.d.Recognition.Identify(c.Request.Context(), req.Image)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListVisitors(c *gin.Context) {
	var (
		visitors []model.Visitor
		err      error
	)
	switch c.Query("status") {
	case "":
		visitors, err = h.d.Records.Visitors.GetAll(c.Request.Context())
	case string(model.VisitorActive):
		visitors, err = h.d.Records.Visitors.GetActive(c.Request.Context())
	default:
		badRequest(c, "status filter supports only active")
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"visitors": visitors})
}

func (h *Handler) AddVisitor(c *gin.Context) {
	var v model.Visitor
	if err := c.ShouldBindJSON(&v); err != nil {
		badRequest(c, "invalid visitor payload")
		return
	}
	created, err := h.d.Records.Visitors.Add(c.Request.Context(), v)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListVehicles(c *gin.Context) {
	var (
		vehicles []model.Vehicle
		err      error
	)
	switch c.Query("status") {
	case "":
		vehicles, err = h.d.Records.Vehicles.GetAll(c.Request.Context())
	case string(model.VehicleInside):
		vehicles, err = h.d.Records.Vehicles.GetInside(c.Request.Context())
	default:
		badRequest(c, "status filter supports only inside")
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}

func (h *Handler) AddVehicle(c *gin.Context) {
	var v model.Vehicle
	if err := c.ShouldBindJSON(&v); err != nil {
		badRequest(c, "invalid vehicle payload")
		return
	}
	created, err := h.d.Records.Vehicles.Add(c.Request.Context(), v)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListLostItems supports ?status=unclaimed and ?category=<category>; both may
// be combined.
func (h *Handler) ListLostItems(c *gin.Context) {
	category := model.ItemCategory(c.Query("category"))
	if category != "" && !category.Valid() {
		badRequest(c, "unknown category "+string(category))
		return
	}
	var (
		items []model.LostItem
		err   error
	)
	switch c.Query("status") {
	case "":
		items, err = h.d.Records.LostItems.GetAll(c.Request.Context())
	case string(model.ItemUnclaimed):
		items, err = h.d.Records.LostItems.GetUnclaimed(c.Request.Context())
	default:
		badRequest(c, "status filter supports only unclaimed")
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if category != "" {
		matched := []model.LostItem{}
		for _, item := range items {
			if item.Category == category {
				matched = append(matched, item)
			}
		}
		items = matched
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) AddLostItem(c *gin.Context) {
	var item model.LostItem
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, "invalid item payload")
		return
	}
	created, err := h.d.Records.LostItems.Add(c.Request.Context(), item)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListEvents(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}
	events, err := h.d.Records.Events.GetAll(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *Handler) AddEvent(c *gin.Context) {
	var e model.SecurityEvent
	if err := c.ShouldBindJSON(&e); err != nil {
		badRequest(c, "invalid event payload")
		return
	}
	created, err := h.d.Records.Events.Add(c.Request.Context(), e)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}
