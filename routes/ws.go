package routes

import (
	"github.com/gin-gonic/gin"

	"handyconnect-server/middleware"
	"handyconnect-server/resp"
	"handyconnect-server/services"
	"handyconnect-server/websocket"
)

// RegisterWebSocketRoutes registers the booking event stream
func RegisterWebSocketRoutes(router *gin.RouterGroup, deps Dependencies) {
	if deps.Hub == nil {
		return
	}
	upgrader := websocket.Upgrader(deps.Config.Server.AllowedOrigins)

	router.GET("/ws", middleware.WebSocketAuthMiddleware(deps.Tokens), func(c *gin.Context) {
		client, err := newClient(c, deps.Hub, deps.Queries)
		if err != nil {
			resp.Error(c, err)
			return
		}
		websocket.Serve(deps.Hub, &upgrader, c.Writer, c.Request, client)
	})
}

// newClient tags worker connections with their trade and city so new
// bookings reach them. Workers awaiting approval are refused, like the
// pending bookings list.
func newClient(c *gin.Context, hub *websocket.Hub, queries *services.BookingQueryService) (*websocket.Client, error) {
	p := principal(c)
	if !p.IsWorker() {
		return websocket.NewClient(hub, p, "", ""), nil
	}

	worker, err := queries.FeedWorker(c.Request.Context(), p)
	if err != nil {
		return nil, err
	}
	return websocket.NewClient(hub, p, worker.ServiceType, worker.City), nil
}
