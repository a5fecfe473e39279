package routes

import (
	"github.com/gin-gonic/gin"

	"handyconnect-server/middleware"
	"handyconnect-server/models"
	"handyconnect-server/resp"
	"handyconnect-server/services"
	"handyconnect-server/types"
)

type adminHandler struct {
	admin *services.AdminService
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// RegisterAdminRoutes registers admin login and worker approval routes
func RegisterAdminRoutes(router *gin.RouterGroup, deps Dependencies) {
	h := &adminHandler{admin: deps.Admin}

	admin := router.Group("/admin")
	{
		admin.POST("/login", h.login)

		protected := admin.Group("")
		protected.Use(middleware.AuthMiddleware(deps.Tokens, types.PrincipalAdmin))
		{
			protected.GET("/workers", h.listWorkers)
			protected.GET("/workers/pending", h.pendingWorkers)
			protected.GET("/workers/:id", h.workerDetails)
			protected.PUT("/workers/:id/approve", h.approve)
			protected.PUT("/workers/:id/reject", h.reject)
			protected.GET("/dashboard/stats", h.dashboardStats)
		}
	}
}

func (h *adminHandler) login(c *gin.Context) {
	var input services.LoginInput
	if err := bindJSON(c, &input); err != nil {
		resp.Error(c, err)
		return
	}

	result, err := h.admin.Login(c.Request.Context(), input)
	if err != nil {
		resp.Error(c, err)
		return
	}

	resp.OK(c, result)
}

func (h *adminHandler) listWorkers(c *gin.Context) {
	workers, err := h.admin.ListWorkers(c.Request.Context(), c.Query("status"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, workers)
}

func (h *adminHandler) pendingWorkers(c *gin.Context) {
	workers, err := h.admin.ListWorkers(c.Request.Context(), string(models.WorkerStatusPending))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, workers)
}

func (h *adminHandler) workerDetails(c *gin.Context) {
	workerID, err := paramID(c, "id", "worker")
	if err != nil {
		resp.Error(c, err)
		return
	}

	worker, err := h.admin.WorkerDetails(c.Request.Context(), workerID)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, worker)
}

func (h *adminHandler) approve(c *gin.Context) {
	workerID, err := paramID(c, "id", "worker")
	if err != nil {
		resp.Error(c, err)
		return
	}

	worker, err := h.admin.Approve(c.Request.Context(), principal(c), workerID)
	if err != nil {
		resp.Error(c, err)
		return
	}

	resp.OK(c, gin.H{"msg": "Worker approved successfully", "worker": worker})
}

func (h *adminHandler) reject(c *gin.Context) {
	workerID, err := paramID(c, "id", "worker")
	if err != nil {
		resp.Error(c, err)
		return
	}

	var body rejectRequest
	if err := bindJSON(c, &body); err != nil {
		resp.Error(c, err)
		return
	}

	worker, err := h.admin.Reject(c.Request.Context(), principal(c), workerID, body.Reason)
	if err != nil {
		resp.Error(c, err)
		return
	}

	resp.OK(c, gin.H{"msg": "Worker rejected", "worker": worker})
}

func (h *adminHandler) dashboardStats(c *gin.Context) {
	stats, err := h.admin.DashboardStats(c.Request.Context())
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, stats)
}
