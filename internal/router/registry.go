package router

import "github.com/gin-gonic/gin"

// Registry collects feature modules and mounts their routes under the shared
// /api group. Global middleware stays on the engine; per-route guards (auth,
// rate limits) belong to the modules themselves.
type Registry struct {
	Engine  *gin.Engine
	API     *gin.RouterGroup
	modules []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, API: engine.Group("/api")}
}

// Add queues a module for registration.
func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

// RegisterAll mounts every queued module on the /api group.
func (r *Registry) RegisterAll() {
	for _, m := range r.modules {
		m.Register(r.API)
	}
}
