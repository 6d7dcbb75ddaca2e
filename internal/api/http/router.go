package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/f-lab-edu/commerce-core/internal/health"
)

// NewRouter создаёт и настраивает HTTP роутер
// readiness - функция для проверки готовности сервиса (например, проверка БД).
// Если readiness возвращает false, health endpoint вернёт 503 Service Unavailable.
func NewRouter(handler *Handler, readiness func() bool) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Route("/users", func(r chi.Router) {
		r.Post("/", handler.PostUsers)
		r.Get("/{id}", withID(handler.GetUsersID))
		r.Put("/{id}", withID(handler.PutUsersID))
	})

	router.Route("/products", func(r chi.Router) {
		r.Post("/", handler.PostProducts)
		r.Get("/", handler.GetProducts)
		r.Get("/{id}", withID(handler.GetProductsID))
		r.Put("/{id}", withID(handler.PutProductsID))
		r.Delete("/{id}", withID(handler.DeleteProductsID))
	})

	router.Route("/inventory", func(r chi.Router) {
		r.Get("/", handler.GetStock)
		r.Post("/", handler.PostStock)
		r.Put("/{id}", withID(handler.PutStockID))
		r.Delete("/{id}", withID(handler.DeleteStockID))
		r.Post("/{id}/increase", withID(handler.PostStockIncreaseByID))
		r.Route("/products/{id}", func(r chi.Router) {
			r.Get("/", withID(handler.GetStockByProduct))
			r.Put("/", withID(handler.PutStockByProduct))
			r.Post("/increase", withID(handler.PostStockIncrease))
			r.Post("/decrease", withID(handler.PostStockDecrease))
		})
	})

	router.Route("/orders", func(r chi.Router) {
		r.Post("/", handler.PostOrders)
		r.Get("/", handler.GetOrders)
		r.Get("/{id}", withID(handler.GetOrdersID))
		r.Post("/{id}/cancel", withID(handler.PostOrdersCancel))
	})

	router.Get("/payments/{id}", withID(handler.GetPaymentsID))

	// Health без middleware
	router.Get("/health", health.Handler(readiness))

	return router
}

// withID достаёт path-параметр id и передаёт его в обработчик
func withID(fn func(w http.ResponseWriter, r *http.Request, id string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, chi.URLParam(r, "id"))
	}
}
