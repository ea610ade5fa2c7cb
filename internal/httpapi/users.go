package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campussecurity/internal/model"
	"campussecurity/internal/records"
)

type userRequest struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

func publicUsers(in []model.User) []model.User {
	out := make([]model.User, len(in))
	for i, u := range in {
		out[i] = u.Public()
	}
	return out
}

// ListUsers returns security personnel, filtered by ?q= over name and email.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.d.Records.Users.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": publicUsers(users)})
}

func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.d.Records.Users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u.Public())
}

func (h *Handler) AddUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid user payload")
		return
	}
	created, err := h.d.Records.Users.Add(c.Request.Context(), model.User{
		Name: req.Name, Email: req.Email, Password: req.Password, Role: req.Role,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created.Public())
}

// UpdateUser edits an account; a blank password keeps the current one.
func (h *Handler) UpdateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid user payload")
		return
	}
	updated, err := h.d.Records.Users.Update(c.Request.Context(), c.Param("id"), records.UserPatch{
		Name: req.Name, Email: req.Email, Password: req.Password, Role: req.Role,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated.Public())
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.d.Records.Users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
