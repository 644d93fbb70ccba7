package api

import (
	"busbook/internal/maestro/handlers"
	"busbook/internal/maestro/service"
	"busbook/pkg/client"
	httputil "busbook/pkg/http"
	"busbook/pkg/logger"
	"busbook/pkg/middleware"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func SetupRouter(api *client.API, log *logger.Logger) http.Handler {
	maestroService := service.NewMaestroService(api, log)
	flowHandler := handlers.NewFlowHandler(maestroService, log)

	router := httprouter.New()
	flowHandler.RegisterRoutes(router)
	router.GET("/api/v1/maestro/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		if err := httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"}); err != nil {
			log.Error("failed to write health response", "error", err)
		}
	})

	var handler http.Handler = router
	handler = middleware.RequestLogging(log)(handler)
	handler = middleware.Recovery(log)(handler)
	return handler
}
