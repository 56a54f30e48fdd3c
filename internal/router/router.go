package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/watchparty-service/internal/handler"
	"github.com/psds-microservice/watchparty-service/pkg/constants"
)

// New builds the HTTP router.
func New(
	partyHandler *handler.PartyHandler,
	partyWS *handler.PartyWSHandler,
	health *handler.HealthHandler,
) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathHealth, health.Health)
	r.GET(constants.PathReady, health.Ready)

	// REST party lookup
	api := r.Group("/api")
	{
		api.GET("/party/:id", partyHandler.GetParty)
	}

	// WebSocket: one persistent connection per client
	r.GET(constants.PathWS, partyWS.ServeWS)

	return r
}
