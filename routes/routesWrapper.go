package routes

import (
	"github.com/julienschmidt/httprouter"

	"voyage/design"
	"voyage/images"
	"voyage/middleware"
	"voyage/proposal"
	"voyage/ratelim"
	"voyage/settings"
)

// Services is everything the router dispatches to.
type Services struct {
	Proposal *proposal.Handler
	Design   *design.Handler
	Settings *settings.Handler
	Uploader *images.Uploader
	Auth     *middleware.Auth
	Limiter  *ratelim.RateLimiter
}

func RoutesWrapper(s Services) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)

	AddStaticRoutes(router, s.Uploader.Dir)
	AddProposalRoutes(router, s.Proposal, s.Auth, s.Limiter)
	AddDesignRoutes(router, s.Design, s.Auth)
	AddUploadRoutes(router, s.Uploader, s.Auth)
	AddSettingsRoutes(router, s.Settings, s.Auth)
	return router
}
