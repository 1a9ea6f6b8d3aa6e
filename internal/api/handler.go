package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"

	"github.com/mr-fahad-03/invoice-builder/domain"
	"github.com/mr-fahad-03/invoice-builder/internal/auth"
	"github.com/mr-fahad-03/invoice-builder/internal/upload"
)

type ctxKey string

const (
	ctxUserID ctxKey = "userID"
	ctxEmail  ctxKey = "email"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	db        *sqlx.DB
	secret    string
	uploads   *upload.Store
	uploadDir string
}

// New constructs a Handler.
func New(db *sqlx.DB, secret, uploadDir string) *Handler {
	return &Handler{db: db, secret: secret, uploads: upload.NewStore(uploadDir), uploadDir: uploadDir}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", h.index)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)
		r.Get("/test", h.testDatabase)

		r.Post("/auth/login", h.login)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Get("/{id}", h.getProduct)
			r.Group(func(protected chi.Router) {
				protected.Use(h.authMiddleware)
				protected.Post("/", h.createProduct)
				protected.Put("/{id}", h.updateProduct)
				protected.Delete("/{id}", h.deleteProduct)
			})
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.listInvoices)
			r.Get("/{id}", h.getInvoice)
			r.Post("/", h.createInvoice)
			r.Delete("/{id}", h.deleteInvoice)
		})

		r.Get("/stats", h.stats)
	})

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.uploadDir))))

	return r
}

// Diagnostics

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"name": "invoice-builder API",
		"endpoints": []string{
			"POST /api/auth/login",
			"GET /api/products",
			"GET /api/products/{id}",
			"POST /api/products",
			"PUT /api/products/{id}",
			"DELETE /api/products/{id}",
			"GET /api/invoices",
			"GET /api/invoices/{id}",
			"POST /api/invoices",
			"DELETE /api/invoices/{id}",
			"GET /api/stats",
			"GET /api/health",
		},
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	database := "connected"
	if err := h.db.Ping(); err != nil {
		database = "disconnected"
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"database":  database,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// testDatabase is a debug surface; it should not ship to production as-is.
func (h *Handler) testDatabase(w http.ResponseWriter, r *http.Request) {
	var one int
	if err := h.db.Get(&one, `SELECT 1`); err != nil {
		respondError(w, http.StatusInternalServerError, "database test failed")
		return
	}
	var tables []string
	if err := h.db.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list tables")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"result": one, "tables": tables})
}

// Authentication

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	var user domain.User
	err := h.db.Get(&user, `SELECT id, email, password FROM users WHERE email = ?`, strings.ToLower(req.Email))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !auth.CheckPassword(req.Password, user.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.IssueToken(h.secret, user.ID, user.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": user.ID, "email": user.Email, "token": token})
}

// authMiddleware guards product mutations. A missing header is an
// authentication failure (401); a present but invalid or expired token is an
// authorization failure (403).
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "authorization token is required")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		claims, err := auth.VerifyToken(h.secret, tokenString)
		if err != nil {
			respondError(w, http.StatusForbidden, "invalid or expired token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxEmail, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Product handlers

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products := []domain.Product{}
	if err := h.db.Select(&products, `SELECT id, name, price, description, image, created_at FROM products ORDER BY created_at DESC, id DESC`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list products")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	var product domain.Product
	err = h.db.Get(&product, `SELECT id, name, price, description, image, created_at FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch product")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	priceStr := strings.TrimSpace(r.FormValue("price"))
	description := r.FormValue("description")
	if name == "" || priceStr == "" {
		respondError(w, http.StatusBadRequest, "name and price are required")
		return
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "price must be a number")
		return
	}

	imagePath, err := h.uploads.Save(r)
	if errors.Is(err, upload.ErrNoFile) {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.db.Exec(`INSERT INTO products (name, price, description, image) VALUES (?, ?, ?, ?)`,
		name, price, description, imagePath)
	if err != nil {
		h.uploads.Remove(imagePath)
		respondError(w, http.StatusInternalServerError, "unable to create product")
		return
	}
	id, err := result.LastInsertId()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create product")
		return
	}

	var product domain.Product
	if err := h.db.Get(&product, `SELECT id, name, price, description, image, created_at FROM products WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch created product")
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	var existing domain.Product
	err = h.db.Get(&existing, `SELECT id, name, price, description, image, created_at FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch product")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	priceStr := strings.TrimSpace(r.FormValue("price"))
	description := r.FormValue("description")
	if name == "" || priceStr == "" {
		respondError(w, http.StatusBadRequest, "name and price are required")
		return
	}
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "price must be a number")
		return
	}

	imagePath := existing.Image
	newImage, err := h.uploads.Save(r)
	switch {
	case err == nil:
		imagePath = newImage
	case errors.Is(err, upload.ErrNoFile):
		// No replacement image; keep the current one.
	default:
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.db.Exec(`UPDATE products SET name = ?, price = ?, description = ?, image = ? WHERE id = ?`,
		name, price, description, imagePath, id); err != nil {
		if imagePath != existing.Image {
			h.uploads.Remove(imagePath)
		}
		respondError(w, http.StatusInternalServerError, "unable to update product")
		return
	}
	// Disk cleanup is best effort and not atomic with the row update.
	if imagePath != existing.Image {
		h.uploads.Remove(existing.Image)
	}

	var product domain.Product
	if err := h.db.Get(&product, `SELECT id, name, price, description, image, created_at FROM products WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch updated product")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	var existing domain.Product
	err = h.db.Get(&existing, `SELECT id, name, price, description, image, created_at FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch product")
		return
	}

	if _, err := h.db.Exec(`DELETE FROM products WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete product")
		return
	}
	h.uploads.Remove(existing.Image)

	respondJSON(w, http.StatusOK, map[string]string{"message": "product deleted successfully"})
}

// Invoice handlers

type invoiceRequest struct {
	ID              string          `json:"id"`
	CustomerName    string          `json:"customerName"`
	CustomerPhone   string          `json:"customerPhone"`
	CustomerAddress string          `json:"customerAddress"`
	Date            string          `json:"date"`
	Items           json.RawMessage `json:"items"`
	Subtotal        float64         `json:"subtotal"`
	Tax             float64         `json:"tax"`
	Total           *float64        `json:"total"`
}

func invoiceView(inv domain.Invoice) domain.InvoiceView {
	view := domain.InvoiceView{Invoice: inv, Items: json.RawMessage(inv.Items)}
	if !json.Valid(view.Items) {
		view.Items = json.RawMessage("[]")
	}
	return view
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	var invoices []domain.Invoice
	if err := h.db.Select(&invoices, `SELECT id, customer_name, customer_phone, customer_address, date, items, subtotal, tax, total, created_at FROM invoices ORDER BY date DESC, created_at DESC`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list invoices")
		return
	}
	views := make([]domain.InvoiceView, len(invoices))
	for i, inv := range invoices {
		views[i] = invoiceView(inv)
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var invoice domain.Invoice
	err := h.db.Get(&invoice, `SELECT id, customer_name, customer_phone, customer_address, date, items, subtotal, tax, total, created_at FROM invoices WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		respondError(w, http.StatusNotFound, "invoice not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch invoice")
		return
	}
	respondJSON(w, http.StatusOK, invoiceView(invoice))
}

// createInvoice deliberately requires no token; see the security notes in
// DESIGN.md before changing that.
func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID == "" || req.CustomerName == "" || req.Date == "" || len(req.Items) == 0 || string(req.Items) == "null" || req.Total == nil {
		respondError(w, http.StatusBadRequest, "id, customerName, date, items and total are required")
		return
	}

	if _, err := h.db.Exec(`INSERT INTO invoices (id, customer_name, customer_phone, customer_address, date, items, subtotal, tax, total) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.CustomerName, req.CustomerPhone, req.CustomerAddress, req.Date, string(req.Items), req.Subtotal, req.Tax, *req.Total); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create invoice")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"message": "invoice created successfully", "id": req.ID})
}

func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var count int
	if err := h.db.Get(&count, `SELECT COUNT(*) FROM invoices WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to fetch invoice")
		return
	}
	if count == 0 {
		respondError(w, http.StatusNotFound, "invoice not found")
		return
	}
	if _, err := h.db.Exec(`DELETE FROM invoices WHERE id = ?`, id); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to delete invoice")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "invoice deleted successfully"})
}

// Stats

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	var totalProducts, totalInvoices int64
	var totalRevenue float64
	if err := h.db.Get(&totalProducts, `SELECT COUNT(*) FROM products`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute stats")
		return
	}
	if err := h.db.Get(&totalInvoices, `SELECT COUNT(*) FROM invoices`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute stats")
		return
	}
	if err := h.db.Get(&totalRevenue, `SELECT COALESCE(SUM(total), 0) FROM invoices`); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute stats")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"totalProducts": totalProducts,
		"totalInvoices": totalInvoices,
		"totalRevenue":  totalRevenue,
	})
}

// Helpers

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
