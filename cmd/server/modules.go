package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/veristamp/veristamp/internal/api"
	"github.com/veristamp/veristamp/internal/config"
	"github.com/veristamp/veristamp/internal/infrastructure"
	"github.com/veristamp/veristamp/pkg/module"
)

type Modules struct {
	modules *api.Modules
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	modules, err := api.NewModules(context.Background(), cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{modules: modules}, nil
}

func (m *Modules) Mount(router *module.Router) {
	m.modules.Mount(router)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	return router
}
