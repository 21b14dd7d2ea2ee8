package readings

import (
	"database/sql"
	"net/http"

	"radmon-server/internal/allowlist"
	"radmon-server/internal/modules/readings/controller"
	"radmon-server/internal/modules/readings/repository"
	"radmon-server/internal/modules/readings/service"
	"radmon-server/internal/mqtt"
)

// RegisterFeature wires the readings module: repository over the shared
// connection, the ingestion/query service, HTTP routes, and the optional
// MQTT bridge handler.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, auth *allowlist.Authorizer, subscriber *mqtt.Subscriber) {
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, auth)
	controller.NewReadingsController(repo, svc).RegisterRoutes(mux)
	if subscriber != nil {
		service.RegisterMQTTHandler(subscriber, svc)
	}
}
