package main

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/greatgold/storefront/internal/format"
	"github.com/greatgold/storefront/internal/storefront"
)

type webApp struct {
	catalog *storefront.Catalog
	client  *storefront.Client
	pages   map[string]*template.Template
	baseURL string
	logger  *zap.Logger
}

func (app *webApp) router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/", app.catalogPage)
	r.Get("/products/{productId}", app.productPage)
	r.Post("/products/{productId}/pay", app.startPayment)
	r.Get("/success", app.successPage)
	r.Get("/cancel", app.cancelPage)

	return r
}

type productView struct {
	ID           string
	Name         string
	Description  string
	Image        string
	DisplayPrice string
}

type catalogView struct {
	Products []productView
}

type productPageView struct {
	Product productView
	Error   string
}

type successView struct {
	Paid          bool
	Status        string
	CustomerName  string
	CustomerEmail string
	Error         string
}

func toProductView(p storefront.Product) productView {
	return productView{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Image:        p.Image,
		DisplayPrice: format.FmtPrice(p.Price, "USD"),
	}
}

func (app *webApp) catalogPage(w http.ResponseWriter, r *http.Request) {
	products := app.catalog.Products()
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, toProductView(p))
	}
	app.render(w, r, "catalog", http.StatusOK, catalogView{Products: views})
}

func (app *webApp) productPage(w http.ResponseWriter, r *http.Request) {
	product, ok := app.catalog.Product(chi.URLParam(r, "productId"))
	if !ok {
		app.render(w, r, "not_found", http.StatusNotFound, nil)
		return
	}
	app.render(w, r, "product", http.StatusOK, productPageView{Product: toProductView(product)})
}

// startPayment runs a checkout attempt and redirects the customer to the
// hosted payment page. Failures re-render the product page with the error so
// the customer can retry.
func (app *webApp) startPayment(w http.ResponseWriter, r *http.Request) {
	product, ok := app.catalog.Product(chi.URLParam(r, "productId"))
	if !ok {
		app.render(w, r, "not_found", http.StatusNotFound, nil)
		return
	}

	flow := storefront.NewFlow(app.client)
	redirectURL, err := flow.Checkout(r.Context(), product,
		app.baseURL+"/success",
		app.baseURL+"/cancel",
	)
	if err != nil {
		app.logger.Warn("checkout attempt failed",
			zap.String("product", product.ID),
			zap.String("attempt", flow.AttemptID()),
			zap.Error(err),
		)
		app.render(w, r, "product", http.StatusBadGateway, productPageView{
			Product: toProductView(product),
			Error:   paymentErrorMessage(err),
		})
		return
	}

	http.Redirect(w, r, redirectURL, http.StatusSeeOther)
}

// successPage verifies the returned session. Landing here without a session id
// means the customer navigated back manually; send them to the catalog without
// calling the API.
func (app *webApp) successPage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if strings.TrimSpace(sessionID) == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	flow := storefront.NewFlow(app.client)
	result := flow.Verify(r.Context(), sessionID)
	if err := result.Err(); err != nil {
		app.logger.Warn("session verification failed", zap.Error(err))
		app.render(w, r, "success", http.StatusBadGateway, successView{
			Error: "We could not verify your payment. If you were charged, please contact support.",
		})
		return
	}

	verification, _ := result.OK()
	app.render(w, r, "success", http.StatusOK, successView{
		Paid:          verification.Status == "paid",
		Status:        verification.Status,
		CustomerName:  verification.CustomerName,
		CustomerEmail: verification.CustomerEmail,
	})
}

func (app *webApp) cancelPage(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, "cancel", http.StatusOK, nil)
}

func (app *webApp) render(w http.ResponseWriter, r *http.Request, page string, status int, data any) {
	tmpl, ok := app.pages[page]
	if !ok {
		app.logger.Error("unknown template", zap.String("page", page))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		app.logger.Error("render failed", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func paymentErrorMessage(err error) string {
	switch {
	case errors.Is(err, storefront.ErrServerUnavailable):
		return "Payment server is not available. Please try again later."
	case errors.Is(err, storefront.ErrNoSessionCreated):
		return "No session ID received from server. Please try again."
	default:
		return "An unexpected error occurred. Please try again."
	}
}
