package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stagepass/stagepass-backend/api/controllers"
	cartcontrollers "github.com/stagepass/stagepass-backend/api/controllers/cart"
	"github.com/stagepass/stagepass-backend/api/middleware"
	cartsvc "github.com/stagepass/stagepass-backend/internal/cart"
	checkoutsvc "github.com/stagepass/stagepass-backend/internal/checkout"
	"github.com/stagepass/stagepass-backend/internal/promo"
	"github.com/stagepass/stagepass-backend/pkg/config"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

// RouterParams carry everything the HTTP surface needs.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              controllers.Pinger
	Redis           controllers.Pinger
	CartService     cartsvc.Service
	CheckoutService checkoutsvc.Service
	PromoResolver   promo.Resolver
	CartRenderer    cartcontrollers.Renderer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": params.DB,
			"redis":    params.Redis,
		}))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/insurance", controllers.InsuranceOffer(cfg.Insurance))

		r.Group(func(r chi.Router) {
			r.Use(middleware.CartSession(logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.Fetch(params.CartService, params.CartRenderer, logg))
				r.Delete("/", cartcontrollers.Clear(params.CartService, logg))
				r.Post("/lines", cartcontrollers.AddLine(params.CartService, params.CartRenderer, logg))
				r.Patch("/lines/{index}", cartcontrollers.UpdateQuantity(params.CartService, params.CartRenderer, logg))
				r.Delete("/lines/{index}", cartcontrollers.RemoveLine(params.CartService, params.CartRenderer, logg))
				r.Put("/insurance", cartcontrollers.SetInsurance(params.CartService, params.CartRenderer, logg))
				r.Post("/promo", controllers.ApplyPromo(params.PromoResolver, logg))
				r.Delete("/promo", controllers.RemovePromo(params.PromoResolver, logg))
			})

			r.Post("/checkout", controllers.SubmitCheckout(params.CheckoutService, logg))
		})
	})

	return r
}
