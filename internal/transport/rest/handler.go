// Package rest provides HTTP handlers for inventory operations.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	producterrors "github.com/abgdnv/inventory/internal/errors"
	"github.com/abgdnv/inventory/internal/service"
	"github.com/abgdnv/inventory/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	service  service.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of Handler with the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: newValidator(),
		logger:   logger.With("component", "rest"),
	}
}

// newValidator reports fields by the name clients use: the json tag, else the query tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, key := range []string{"json", "query"} {
			if name, _, _ := strings.Cut(field.Tag.Get(key), ","); name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	return v
}

// RegisterRoutes registers the HTTP routes for the inventory service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)
		r.Get("/metrics", h.Metrics)
		r.Get("/categories", h.Categories)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.DeleteByID)
			r.Post("/outofstock", h.MarkOutOfStock)
			r.Put("/instock", h.MarkInStock)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// FindAll lists products, optionally filtered and sorted by query parameters.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	inStock, ok := web.ParseOptionalBool(w, r, h.logger, "inStock")
	if !ok {
		return
	}
	query := service.ListQuery{
		Name:       r.URL.Query().Get("name"),
		Categories: web.QueryValues(r, "category"),
		InStock:    inStock,
		SortBy:     r.URL.Query().Get("sort"),
		Order:      r.URL.Query().Get("order"),
	}
	if err := h.validate.Struct(query); err != nil {
		web.RespondValidationError(w, h.logger, err)
		return
	}

	h.logger.DebugContext(r.Context(), "Received request to find all products", "query", query)
	list, err := h.service.FindAll(r.Context(), query)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// FindByID retrieves a product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}

	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err, id, "retrieve")
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product", "ID", found.ID, "Name", found.Name)
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// Categories lists the distinct product categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error retrieving categories", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, categories)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	request, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), request)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	w.Header().Set("Location", fmt.Sprintf("/api/v1/products/%d", created.ID))
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

// Update replaces the editable fields of an existing product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	request, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Update(r.Context(), id, request)
	if err != nil {
		h.respondServiceError(w, r, err, id, "update")
		return
	}
	h.logger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

// DeleteByID deletes a product by its ID.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err, id, "delete")
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// MarkOutOfStock sets the quantity of a product to 0.
func (h *Handler) MarkOutOfStock(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.MarkOutOfStock(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err, id, "mark out of stock")
		return
	}
	h.logger.InfoContext(r.Context(), "Product marked out of stock", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// MarkInStock restores the default quantity of a product.
func (h *Handler) MarkInStock(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.MarkInStock(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err, id, "mark in stock")
		return
	}
	h.logger.InfoContext(r.Context(), "Product marked in stock", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// Metrics returns the inventory summary.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Metrics(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error computing inventory metrics", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to compute inventory metrics")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, summary)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// decodeProduct reads and validates a create or update body. The body must hold exactly one JSON value.
// On failure the response is already written.
func (h *Handler) decodeProduct(w http.ResponseWriter, r *http.Request) (service.ProductRequestDto, bool) {
	var request service.ProductRequestDto
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(&request)
	if err == nil {
		if trailing := dec.Decode(&struct{}{}); !errors.Is(trailing, io.EOF) {
			err = errors.New("unexpected data after JSON value")
		}
	}
	if err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return request, false
	}
	if err := h.validate.Struct(request); err != nil {
		web.RespondValidationError(w, h.logger, err)
		return request, false
	}
	return request, true
}

// respondServiceError maps ErrProductNotFound to 404 and anything else to 500.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, id int64, action string) {
	if errors.Is(err, producterrors.ErrProductNotFound) {
		h.logger.WarnContext(r.Context(), "Product not found", "ID", id, "action", action)
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
		return
	}
	h.logger.ErrorContext(r.Context(), "Error handling product", "ID", id, "action", action, "error", err)
	web.RespondError(w, h.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to %s product with ID %d", action, id))
}
