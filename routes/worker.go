package routes

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"handyconnect-server/apperror"
	"handyconnect-server/middleware"
	"handyconnect-server/resp"
	"handyconnect-server/services"
	"handyconnect-server/types"
)

type workerHandler struct {
	auth    *services.AuthService
	queries *services.BookingQueryService
}

// RegisterWorkerRoutes registers worker signup, login, profile and
// completed-jobs routes
func RegisterWorkerRoutes(router *gin.RouterGroup, deps Dependencies) {
	h := &workerHandler{auth: deps.Auth, queries: deps.Queries}

	worker := router.Group("/worker")
	{
		worker.POST("/signup", h.signup)
		worker.POST("/login", h.login)

		protected := worker.Group("")
		protected.Use(middleware.AuthMiddleware(deps.Tokens, types.PrincipalWorker))
		{
			protected.GET("/profile", h.profile)
			protected.PUT("/profile", h.updateProfile)
		}
	}

	router.GET("/workers/:id/completed-jobs",
		middleware.AuthMiddleware(deps.Tokens, types.PrincipalWorker, types.PrincipalAdmin),
		h.completedJobs)
}

// signup expects multipart form fields plus "profile" and "aadhaarCard" files.
func (h *workerHandler) signup(c *gin.Context) {
	var input services.WorkerSignupInput
	if err := c.ShouldBind(&input); err != nil {
		resp.Error(c, apperror.NewValidationError("Invalid form data"))
		return
	}

	profile, closeProfile, err := formImage(c, "profile")
	if err != nil {
		resp.Error(c, err)
		return
	}
	defer closeProfile()

	aadhaar, closeAadhaar, err := formImage(c, "aadhaarCard")
	if err != nil {
		resp.Error(c, err)
		return
	}
	defer closeAadhaar()

	worker, err := h.auth.SignupWorker(c.Request.Context(), input, profile, aadhaar)
	if err != nil {
		resp.Error(c, err)
		return
	}

	resp.Created(c, gin.H{
		"msg":  "Worker registered successfully. Your account is pending admin approval.",
		"user": worker,
	})
}

// formImage opens an optional uploaded file. A missing file yields nil.
func formImage(c *gin.Context, field string) (*services.ImageFile, func(), error) {
	header, err := c.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, apperror.NewValidationError("Invalid " + field + " upload")
	}

	var f multipart.File
	if f, err = header.Open(); err != nil {
		return nil, func() {}, apperror.NewStoreError("read upload", err)
	}

	return &services.ImageFile{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  f,
	}, func() { _ = f.Close() }, nil
}

func (h *workerHandler) login(c *gin.Context) {
	var input services.LoginInput
	if err := bindJSON(c, &input); err != nil {
		resp.Error(c, err)
		return
	}

	result, err := h.auth.LoginWorker(c.Request.Context(), input)
	if err != nil {
		resp.Error(c, err)
		return
	}

	resp.OK(c, result)
}

func (h *workerHandler) profile(c *gin.Context) {
	worker, err := h.auth.WorkerProfile(c.Request.Context(), principal(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, worker)
}

func (h *workerHandler) updateProfile(c *gin.Context) {
	var update services.ProfileUpdate
	if err := bindJSON(c, &update); err != nil {
		resp.Error(c, err)
		return
	}

	worker, err := h.auth.UpdateWorkerProfile(c.Request.Context(), principal(c), update)
	if err != nil {
		resp.Error(c, err)
		return
	}

	resp.OK(c, gin.H{"msg": "Profile updated successfully", "user": worker})
}

func (h *workerHandler) completedJobs(c *gin.Context) {
	workerID, err := paramID(c, "id", "worker")
	if err != nil {
		resp.Error(c, err)
		return
	}

	jobs, err := h.queries.ListWorkerCompletedJobs(c.Request.Context(), principal(c), workerID)
	if err != nil {
		resp.Error(c, err)
		return
	}

	resp.OK(c, jobs)
}
