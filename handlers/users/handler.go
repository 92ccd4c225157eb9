package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ignaciojsoler/saas-boilerplate/models"
	"github.com/ignaciojsoler/saas-boilerplate/utils"
)

type Handler struct {
	db *gorm.DB
}

func New(database *gorm.DB) *Handler {
	return &Handler{db: database}
}

// GetMe returns the connected user's profile
// @Summary Current user profile
// @Description Return the profile of the connected user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Router /users/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateMe updates the connected user's profile
// @Summary Update profile
// @Description Update the profile fields of the connected user
// @Tags users
// @Accept json
// @Produce json
// @Param user body models.UserUpdate true "Profile fields"
// @Security BearerAuth
// @Success 200 {object} map[string]string "message: Profile updated"
// @Failure 401 {object} map[string]string "error: Unauthorized"
// @Router /users/me [put]
func (h *Handler) UpdateMe(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.UserUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.db.Model(&user).Update("user_name", input.UserName).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error updating profile in UpdateMe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating the profile"})
		return
	}

	utils.LogSuccessWithUser(userID, "Profile updated")
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

// UpdatePassword changes the connected user's password
// @Summary Change password
// @Description Change the password of the connected user
// @Tags users
// @Accept json
// @Produce json
// @Param passwords body models.PasswordUpdate true "Current and new password"
// @Security BearerAuth
// @Success 200 {object} map[string]string "message: Password updated"
// @Failure 401 {object} map[string]string "error: Wrong current password"
// @Router /users/me/password [put]
func (h *Handler) UpdatePassword(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.PasswordUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	if len(input.NewPassword) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "The password must contain at least 6 characters"})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Wrong current password"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Error when hashing the password"})
		return
	}

	if err := h.db.Model(&user).Update("password", string(hashed)).Error; err != nil {
		utils.LogErrorWithUser(userID, err, "Error updating password in UpdatePassword")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating the password"})
		return
	}

	utils.LogSuccessWithUser(userID, "Password updated")
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
