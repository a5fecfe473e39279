package routes

import (
	"github.com/gin-gonic/gin"

	"handyconnect-server/middleware"
	"handyconnect-server/models"
	"handyconnect-server/resp"
	"handyconnect-server/services"
	"handyconnect-server/types"
)

type bookingHandler struct {
	bookings *services.BookingService
	queries  *services.BookingQueryService
}

// decisionRequest accepts either "decision" or the older "status" key.
type decisionRequest struct {
	Decision models.BookingStatus `json:"decision"`
	Status   models.BookingStatus `json:"status"`
}

type ratingRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// RegisterBookingRoutes registers the booking lifecycle routes
func RegisterBookingRoutes(router *gin.RouterGroup, deps Dependencies) {
	h := &bookingHandler{bookings: deps.Bookings, queries: deps.Queries}

	customerOnly := middleware.AuthMiddleware(deps.Tokens, types.PrincipalCustomer)
	workerOnly := middleware.AuthMiddleware(deps.Tokens, types.PrincipalWorker)

	bookings := router.Group("/bookings")
	{
		bookings.POST("", customerOnly, h.create)
		bookings.GET("/mine", customerOnly, h.mine)
		bookings.GET("/mine/categorized", customerOnly, h.mineCategorized)
		bookings.PUT("/:id/rating", customerOnly, h.rate)

		bookings.GET("", workerOnly, h.available)
		bookings.PUT("/:id/decision", workerOnly, h.decide)
		bookings.PUT("/:id/complete", workerOnly, h.complete)
	}
}

func (h *bookingHandler) create(c *gin.Context) {
	var input services.CreateBookingInput
	if err := bindJSON(c, &input); err != nil {
		resp.Error(c, err)
		return
	}

	booking, err := h.bookings.Create(c.Request.Context(), principal(c), input)
	if err != nil {
		resp.Error(c, err)
		return
	}

	resp.Created(c, gin.H{"msg": "Booking created successfully", "booking": booking})
}

func (h *bookingHandler) mine(c *gin.Context) {
	bookings, err := h.queries.ListByCustomer(c.Request.Context(), principal(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, bookings)
}

func (h *bookingHandler) mineCategorized(c *gin.Context) {
	categorized, err := h.queries.ListByCustomerCategorized(c.Request.Context(), principal(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, categorized)
}

func (h *bookingHandler) available(c *gin.Context) {
	bookings, err := h.queries.ListAvailableForWorker(c.Request.Context(), principal(c), c.Query("city"), c.Query("serviceType"))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, bookings)
}

func (h *bookingHandler) decide(c *gin.Context) {
	bookingID, err := paramID(c, "id", "booking")
	if err != nil {
		resp.Error(c, err)
		return
	}

	var body decisionRequest
	if err := bindJSON(c, &body); err != nil {
		resp.Error(c, err)
		return
	}
	decision := body.Decision
	if decision == "" {
		decision = body.Status
	}

	booking, err := h.bookings.Decide(c.Request.Context(), bookingID, principal(c), decision)
	if err != nil {
		resp.Error(c, err)
		return
	}

	resp.OK(c, gin.H{"msg": "Booking " + string(booking.Status), "booking": booking})
}

func (h *bookingHandler) complete(c *gin.Context) {
	bookingID, err := paramID(c, "id", "booking")
	if err != nil {
		resp.Error(c, err)
		return
	}

	booking, err := h.bookings.Complete(c.Request.Context(), bookingID, principal(c))
	if err != nil {
		resp.Error(c, err)
		return
	}

	resp.OK(c, gin.H{"msg": "Booking marked as completed", "booking": booking})
}

func (h *bookingHandler) rate(c *gin.Context) {
	bookingID, err := paramID(c, "id", "booking")
	if err != nil {
		resp.Error(c, err)
		return
	}

	var body ratingRequest
	if err := bindJSON(c, &body); err != nil {
		resp.Error(c, err)
		return
	}

	booking, err := h.bookings.Rate(c.Request.Context(), bookingID, principal(c), body.Rating, body.Review)
	if err != nil {
		resp.Error(c, err)
		return
	}

	resp.OK(c, gin.H{"msg": "Thank you for your feedback", "booking": booking})
}
