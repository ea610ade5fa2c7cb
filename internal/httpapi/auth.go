package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campussecurity/internal/auth"
	"campussecurity/internal/ids"
	"campussecurity/internal/model"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type signupRequest struct {
	Email    string     `json:"email" binding:"required"`
	Password string     `json:"password" binding:"required"`
	Name     string     `json:"name" binding:"required"`
	Role     model.Role `json:"role"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type authResponse struct {
	User   model.User     `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

// Login opens a new server-side session and returns tokens bound to it.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	sid := ids.Token()
	slot := h.d.Sessions.Slot(auth.SlotKey(sid))
	ok, err := slot.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.countLogin("error")
		h.fail(c, err)
		return
	}
	if !ok {
		h.countLogin("rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	h.countLogin("success")
	h.issue(c, http.StatusOK, *slot.Current(), sid)
}

// Signup registers an account. It does not sign the caller in.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name, email and password are required")
		return
	}
	// admins are created by other admins through /v1/users
	if req.Role == model.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin accounts cannot be self-registered"})
		return
	}
	ok, err := h.d.Sessions.Signup(c.Request.Context(), req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// Refresh trades a refresh token for a new pair while its session and
// account are alive. The new tokens carry the account's current role.
func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refreshToken is required")
		return
	}
	claims, err := h.d.Issuer.Parse(req.RefreshToken, auth.KindRefresh)
	if err != nil {
		h.fail(c, err)
		return
	}
	u, err := h.d.Sessions.Slot(auth.SlotKey(claims.ID)).Verify(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if u == nil || u.ID != claims.Subject {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}
	h.issue(c, http.StatusOK, *u, claims.ID)
}

func (h *Handler) Logout(c *gin.Context) {
	s, _ := auth.SessionFrom(c)
	if err := s.Logout(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Me(c *gin.Context) {
	s, _ := auth.SessionFrom(c)
	c.JSON(http.StatusOK, s.Current())
}

func (h *Handler) issue(c *gin.Context, code int, u model.User, sid string) {
	pair, err := h.d.Issuer.Issue(u.ID, string(u.Role), sid)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(code, authResponse{User: u.Public(), Tokens: pair})
}

func (h *Handler) countLogin(result string) {
	if h.d.Metrics != nil {
		h.d.Metrics.Logins.WithLabelValues(result).Inc()
	}
}
