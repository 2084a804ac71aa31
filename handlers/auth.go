// auth.go - Handles user registration, login and the session cookie

package handlers // Declares the package name

import ( // Import required packages
	"errors"   // Sentinel checks
	"net/http" // HTTP status codes
	"strings"  // Input trimming

	"github.com/gin-gonic/gin" // Gin web framework
	"go.uber.org/zap"          // Structured logging

	"kkmt-store/auth"       // Password hashing and tokens
	"kkmt-store/middleware" // Current session
	"kkmt-store/models"     // User model
)

type RegisterInput struct { // Struct for registration input
	Name     string `json:"name" binding:"required"`     // Display name (required)
	Email    string `json:"email" binding:"required"`    // Email (required)
	Password string `json:"password" binding:"required"` // Password (required)
}

type LoginInput struct { // Struct for login input
	Email    string `json:"email" binding:"required"`    // Email (required)
	Password string `json:"password" binding:"required"` // Password (required)
}

// Register creates a customer account.
func (h *Handler) Register(c *gin.Context) {
	var input RegisterInput                          // Declare input variable
	if err := c.ShouldBindJSON(&input); err != nil { // Parse JSON input
		badRequest(c, "Missing required fields", err)
		return
	}
	hash, err := auth.HashPassword(input.Password) // Hash password
	if err != nil {
		h.respondError(c, err)
		return
	}
	user := models.User{ // Create user struct
		Name:     strings.TrimSpace(input.Name),
		Email:    input.Email,
		Password: hash,
	}
	if err := h.Users.Create(c.Request.Context(), &user); err != nil { // Save user to DB
		if errors.Is(err, models.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"message": "User with this email already exists"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserDTO(&user)) // Success response
}

// errInvalidCredentials hides whether the email or the password was wrong.
var errInvalidCredentials = errors.New("invalid credentials")

// Login checks credentials, sets the session cookie and returns the token
// for bearer clients.
func (h *Handler) Login(c *gin.Context) {
	var input LoginInput                             // Declare input variable
	if err := c.ShouldBindJSON(&input); err != nil { // Parse JSON input
		badRequest(c, "Email and password are required", err)
		return
	}
	user, token, err := h.signIn(c, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"}) // Return error if wrong
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": toUserDTO(user)}) // Return token
}

// signIn verifies the credentials, issues a token and writes the session
// cookie.
func (h *Handler) signIn(c *gin.Context, email, password string) (*models.User, string, error) {
	user, err := h.Users.GetByEmail(c.Request.Context(), email) // Find user by email
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, "", errInvalidCredentials
		}
		return nil, "", err
	}
	if !auth.CheckPassword(user.Password, password) { // Check password
		return nil, "", errInvalidCredentials
	}
	token, err := h.Issuer.Issue(user)
	if err != nil {
		return nil, "", err
	}
	h.setSessionCookie(c, token, int(h.Issuer.TTL().Seconds()))
	h.Log.Info("user signed in", zap.Uint("user_id", user.ID), zap.String("role", user.Role))
	return user, token, nil
}

// Logout clears the session cookie.
func (h *Handler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the signed-in user.
func (h *Handler) Me(c *gin.Context) {
	claims, _ := middleware.CurrentUser(c)
	user, err := h.Users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserDTO(user)})
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.Auth.CookieName, value, maxAge, "/", "", h.Auth.SecureCookie, true)
}
