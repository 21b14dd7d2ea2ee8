package controller

import (
	"net/http"

	"radmon-server/internal/modules/readings/repository"
	"radmon-server/internal/modules/readings/service"
)

type ReadingsController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type readingsControllerImpl struct {
	repository repository.ReadingRepository
	service    *service.Service
}

func NewReadingsController(repo repository.ReadingRepository, svc *service.Service) ReadingsController {
	return &readingsControllerImpl{repository: repo, service: svc}
}

// RegisterRoutes wires the single ingestion/view endpoint. Devices push via
// GET with query parameters, so every request funnels through the classifier
// at the root.
func (c *readingsControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleRoot)
}
