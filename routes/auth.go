package routes

import (
	"github.com/gin-gonic/gin"

	"handyconnect-server/middleware"
	"handyconnect-server/resp"
	"handyconnect-server/services"
	"handyconnect-server/types"
)

type authHandler struct {
	auth *services.AuthService
}

// RegisterAuthRoutes registers customer signup, login and profile routes
func RegisterAuthRoutes(router *gin.RouterGroup, deps Dependencies) {
	h := &authHandler{auth: deps.Auth}

	auth := router.Group("/auth")
	{
		auth.POST("/signup", h.signup)
		auth.POST("/login", h.login)

		protected := auth.Group("")
		protected.Use(middleware.AuthMiddleware(deps.Tokens, types.PrincipalCustomer))
		{
			protected.GET("/profile", h.profile)
			protected.PUT("/profile", h.updateProfile)
		}
	}
}

func (h *authHandler) signup(c *gin.Context) {
	var input services.CustomerSignupInput
	if err := bindJSON(c, &input); err != nil {
		resp.Error(c, err)
		return
	}

	customer, err := h.auth.SignupCustomer(c.Request.Context(), input)
	if err != nil {
		resp.Error(c, err)
		return
	}

	resp.Created(c, gin.H{"msg": "User registered successfully", "user": customer})
}

func (h *authHandler) login(c *gin.Context) {
	var input services.LoginInput
	if err := bindJSON(c, &input); err != nil {
		resp.Error(c, err)
		return
	}

	result, err := h.auth.LoginCustomer(c.Request.Context(), input)
	if err != nil {
		resp.Error(c, err)
		return
	}

	resp.OK(c, result)
}

func (h *authHandler) profile(c *gin.Context) {
	customer, err := h.auth.CustomerProfile(c.Request.Context(), principal(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, customer)
}

func (h *authHandler) updateProfile(c *gin.Context) {
	var update services.ProfileUpdate
	if err := bindJSON(c, &update); err != nil {
		resp.Error(c, err)
		return
	}

	customer, err := h.auth.UpdateCustomerProfile(c.Request.Context(), principal(c), update)
	if err != nil {
		resp.Error(c, err)
		return
	}

	resp.OK(c, gin.H{"msg": "Profile updated successfully", "user": customer})
}
