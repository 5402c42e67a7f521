package routes

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"voyage/design"
	"voyage/filedrop"
	"voyage/images"
	"voyage/middleware"
	"voyage/proposal"
	"voyage/ratelim"
	"voyage/settings"
)

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("200"))
}

func AddStaticRoutes(router *httprouter.Router, uploadDir string) {
	router.ServeFiles("/static/uploads/*filepath", http.Dir(uploadDir))
}

func AddProposalRoutes(router *httprouter.Router, h *proposal.Handler, auth *middleware.Auth, limiter *ratelim.RateLimiter) {
	a := auth.Authenticate

	router.GET("/api/proposal", a(h.GetProposal))
	router.POST("/api/proposal/reload", a(h.Reload))
	router.POST("/api/proposal/edit", a(h.EnterEdit))
	router.POST("/api/proposal/cancel", a(h.CancelEdit))
	router.POST("/api/proposal/save", a(h.Save))
	router.POST("/api/proposal/undo", a(h.Undo))
	router.POST("/api/proposal/redo", a(h.Redo))

	router.PUT("/api/proposal/fields/:name", a(h.SetField))

	router.POST("/api/proposal/lists/:kind", a(h.AddListItem))
	router.PUT("/api/proposal/lists/:kind/:index", a(h.SetListItem))
	router.DELETE("/api/proposal/lists/:kind/:index", a(h.RemoveListItem))
	router.POST("/api/proposal/reorder/:kind", a(h.Reorder))

	router.POST("/api/proposal/itinerary", a(h.AddItineraryRow))
	router.PUT("/api/proposal/itinerary/:id", a(h.SetItineraryField))
	router.DELETE("/api/proposal/itinerary/:id", a(h.RemoveItineraryRow))

	router.POST("/api/proposal/hotels", a(h.AddHotel))
	router.PUT("/api/proposal/hotels/:id", a(h.SetHotelField))
	router.DELETE("/api/proposal/hotels/:id", a(h.RemoveHotel))
	router.POST("/api/proposal/hotels/:id/images", a(h.AddHotelImage))
	router.DELETE("/api/proposal/hotels/:id/images/:index", a(h.RemoveHotelImage))

	router.POST("/api/proposal/sections/:id/hide", a(h.HideSection))
	router.POST("/api/proposal/sections/:id/show", a(h.ShowSection))
	router.POST("/api/proposal/sections/:id/delete", a(h.DeleteSection))
	router.POST("/api/proposal/sections/:id/restore", a(h.RestoreDeletedSection))

	router.GET("/api/proposal/export/html", a(limiter.Limit(h.ExportHTML)))
	router.GET("/api/proposal/export/pdf", a(limiter.Limit(h.ExportPDF)))

	// public share page behind the PDF's QR code
	router.GET("/proposal/:id", limiter.Limit(h.SharedHTML))
}

func AddDesignRoutes(router *httprouter.Router, h *design.Handler, auth *middleware.Auth) {
	router.GET("/api/design", auth.Authenticate(h.GetOverlay))
	router.POST("/api/design/ops", auth.Authenticate(h.ApplyOp))
	router.POST("/api/design/undo", auth.Authenticate(h.Undo))
	router.POST("/api/design/redo", auth.Authenticate(h.Redo))
	router.GET("/api/design/ws", auth.Authenticate(h.HandleWS))
}

func AddUploadRoutes(router *httprouter.Router, u *images.Uploader, auth *middleware.Auth) {
	router.POST("/api/uploads/images", auth.Authenticate(filedrop.ImageUploadHandler(u)))
}

func AddSettingsRoutes(router *httprouter.Router, h *settings.Handler, auth *middleware.Auth) {
	router.GET("/api/settings", auth.Authenticate(h.GetUserSettings))
	router.PUT("/api/settings/:type", auth.Authenticate(h.UpdateUserSetting))
	router.POST("/api/settings/notices/:notice", auth.Authenticate(h.MarkNoticeSeen))
}
