package handlers

import (
	"errors"
	"net/http"
	"strings"

	"coconut-supply/middleware"
	"coconut-supply/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Name     string          `json:"name" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	Role     models.UserRole `json:"role" binding:"required"`
	Location string          `json:"location" binding:"required"`
}

type UpdateUserRequest struct {
	Name     string          `json:"name" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"omitempty,min=6"`
	Role     models.UserRole `json:"role" binding:"required"`
	Location string          `json:"location" binding:"required"`
}

// AdminListUsers returns all users, optionally filtered by ?role=
func (h *Handler) AdminListUsers(c *gin.Context) {
	users := []models.User{}
	query := h.db.WithContext(c.Request.Context())
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Order("id asc").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// AdminListDrivers feeds the assign-delivery picker
func (h *Handler) AdminListDrivers(c *gin.Context) {
	drivers := []models.User{}
	if err := h.db.WithContext(c.Request.Context()).
		Where("role = ?", models.RoleDriver).Order("name asc").Find(&drivers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load drivers"})
		return
	}
	c.JSON(http.StatusOK, drivers)
}

func (h *Handler) AdminCreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role. Must be: admin, vendor, or driver"})
		return
	}
	if h.emailTaken(c, req.Email, 0) {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		Role:         req.Role,
		Location:     req.Location,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		h.log.Error().Err(err).Msg("create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) AdminUpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role. Must be: admin, vendor, or driver"})
		return
	}

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if h.emailTaken(c, req.Email, id) {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	updates := map[string]interface{}{
		"name":     strings.TrimSpace(req.Name),
		"email":    strings.ToLower(req.Email),
		"role":     req.Role,
		"location": req.Location,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		updates["password_hash"] = string(hash)
	}
	if err := h.db.WithContext(c.Request.Context()).Model(&user).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) AdminDeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if id == middleware.GetUserID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}
	res := h.db.WithContext(c.Request.Context()).Delete(&models.User{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted", "id": id})
}

func (h *Handler) emailTaken(c *gin.Context, email string, exceptID uint) bool {
	var existing models.User
	err := h.db.WithContext(c.Request.Context()).
		Where("email = ? AND id <> ?", strings.ToLower(email), exceptID).
		First(&existing).Error
	return !errors.Is(err, gorm.ErrRecordNotFound) && err == nil
}
