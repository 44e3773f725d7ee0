package transport

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"product-catalog/internal/domain"
	"product-catalog/internal/middleware"
	"product-catalog/internal/repository"
	"product-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxAPIPageSize = 100

// ProductHandler serves the server-rendered catalog pages and the read-only
// JSON API.
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
	templates      *template.Template
	pageSize       int
}

// NewProductHandler creates a new ProductHandler with the embedded views
// parsed. pageSize controls the listing page length.
func NewProductHandler(productService service.ProductService, logger *zap.Logger, pageSize int) *ProductHandler {
	if pageSize < 1 {
		pageSize = service.DefaultPageSize
	}

	return &ProductHandler{
		productService: productService,
		logger:         logger,
		templates:      template.Must(template.ParseFS(templatesFS, "templates/*.html")),
		pageSize:       pageSize,
	}
}

// RegisterRoutes registers the HTML routes. Mutating routes go through the
// rate limiter when one is provided.
func (h *ProductHandler) RegisterRoutes(r chi.Router, rateLimiter func(http.Handler) http.Handler) {
	r.Get("/", h.Index)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.Index)
		r.Get("/new", h.NewForm)
		r.Get("/{id}/edit", h.EditForm)

		r.Group(func(r chi.Router) {
			if rateLimiter != nil {
				r.Use(rateLimiter)
			}
			r.Post("/", h.Create)
			r.Post("/{id}", h.Update)
			r.Post("/{id}/delete", h.Delete)
		})
	})
}

// RegisterAPIRoutes registers the JSON listing/lookup endpoints.
func (h *ProductHandler) RegisterAPIRoutes(r chi.Router) {
	r.Get("/products", h.APIList)
	r.Get("/products/{id}", h.APIGet)
}

// productListView is the view model for the listing page.
type productListView struct {
	Products   []*domain.Product
	Search     string
	Category   string
	SortBy     string
	SortDesc   bool
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
	Categories []string
	Flash      string
}

// SortLink builds the listing URL for sorting by the given field. Clicking
// the active sort column toggles the direction.
func (v productListView) SortLink(field string) template.URL {
	desc := false
	if field == v.SortBy {
		desc = !v.SortDesc
	}
	return v.link(field, desc, 1)
}

// PageLink builds the listing URL for the given page, keeping filters and sort.
func (v productListView) PageLink(page int) template.URL {
	return v.link(v.SortBy, v.SortDesc, page)
}

func (v productListView) link(sortBy string, sortDesc bool, page int) template.URL {
	q := url.Values{}
	if v.Search != "" {
		q.Set("search", v.Search)
	}
	if v.Category != "" {
		q.Set("category", v.Category)
	}
	q.Set("sortBy", sortBy)
	q.Set("sortDesc", strconv.FormatBool(sortDesc))
	q.Set("page", strconv.Itoa(page))
	return template.URL("/products?" + q.Encode())
}

func (v productListView) HasPrev() bool { return v.Page > 1 }
func (v productListView) HasNext() bool { return v.Page < v.TotalPages }
func (v productListView) PrevPage() int { return v.Page - 1 }
func (v productListView) NextPage() int { return v.Page + 1 }

// Pages lists the page numbers rendered in the pagination control.
func (v productListView) Pages() []int {
	pages := make([]int, 0, v.TotalPages)
	for i := 1; i <= v.TotalPages; i++ {
		pages = append(pages, i)
	}
	return pages
}

// productFormView is the view model for the create/edit form.
type productFormView struct {
	Title  string
	Action string
	Form   ProductForm
	Errors map[string]string
	IsEdit bool
}

type errorView struct {
	Status  int
	Message string
}

// Index renders the catalog listing with search, category filter, sorting and
// pagination taken from the query string.
func (h *ProductHandler) Index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	sortBy := q.Get("sortBy")
	if sortBy == "" {
		sortBy = string(repository.SortByName)
	}
	sortDesc := q.Get("sortDesc") == "true"

	params := service.ListParams{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		SortBy:   sortBy,
		SortDesc: sortDesc,
		Page:     page,
		PageSize: h.pageSize,
	}

	products, total, err := h.productService.ListProducts(r.Context(), params)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "Failed to load products")
		return
	}

	categories, err := h.productService.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "Failed to load categories")
		return
	}

	totalPages := (total + h.pageSize - 1) / h.pageSize

	view := productListView{
		Products:   products,
		Search:     params.Search,
		Category:   params.Category,
		SortBy:     sortBy,
		SortDesc:   sortDesc,
		Page:       page,
		PageSize:   h.pageSize,
		TotalItems: total,
		TotalPages: totalPages,
		Categories: categories,
		Flash:      popFlash(w, r),
	}

	h.render(w, http.StatusOK, "index.html", view)
}

// NewForm renders an empty create form.
func (h *ProductHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "form.html", productFormView{
		Title:  "New product",
		Action: "/products",
	})
}

// Create handles the create form submission.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	form := parseProductForm(r)

	price, fieldErrors := validateProductForm(form)
	if len(fieldErrors) > 0 {
		h.render(w, http.StatusUnprocessableEntity, "form.html", productFormView{
			Title:  "New product",
			Action: "/products",
			Form:   form,
			Errors: fieldErrors,
		})
		return
	}

	product := &domain.Product{
		Name:        form.Name,
		Description: form.Description,
		Price:       price,
		Category:    form.Category,
	}

	created, err := h.productService.Create(r.Context(), product)
	if err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	h.logger.Info("Product created via form", zap.String("product_id", created.ID.String()))
	setFlash(w, "Product created")
	http.Redirect(w, r, "/products", http.StatusSeeOther)
}

// EditForm renders the edit form pre-filled with the product's current values.
func (h *ProductHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, http.StatusNotFound, "Product not found")
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load product", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "Failed to load product")
		return
	}
	if product == nil {
		h.renderError(w, http.StatusNotFound, "Product not found")
		return
	}

	h.render(w, http.StatusOK, "form.html", productFormView{
		Title:  "Edit product",
		Action: "/products/" + product.ID.String(),
		Form: ProductForm{
			Name:        product.Name,
			Description: product.Description,
			Price:       product.Price.StringFixed(2),
			Category:    product.Category,
		},
		IsEdit: true,
	})
}

// Update handles the edit form submission.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, http.StatusNotFound, "Product not found")
		return
	}

	form := parseProductForm(r)

	price, fieldErrors := validateProductForm(form)
	if len(fieldErrors) > 0 {
		h.render(w, http.StatusUnprocessableEntity, "form.html", productFormView{
			Title:  "Edit product",
			Action: "/products/" + id.String(),
			Form:   form,
			Errors: fieldErrors,
			IsEdit: true,
		})
		return
	}

	product := &domain.Product{
		ID:          id,
		Name:        form.Name,
		Description: form.Description,
		Price:       price,
		Category:    form.Category,
	}

	updated, err := h.productService.Update(r.Context(), product)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			h.renderError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("Failed to update product", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	h.logger.Info("Product updated via form", zap.String("product_id", updated.ID.String()))
	setFlash(w, "Product updated")
	http.Redirect(w, r, "/products", http.StatusSeeOther)
}

// Delete handles the delete form submission.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, http.StatusNotFound, "Product not found")
		return
	}

	deleted, err := h.productService.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to delete product", zap.Error(err))
		h.renderError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	if !deleted {
		h.renderError(w, http.StatusNotFound, "Product not found")
		return
	}

	setFlash(w, "Product deleted")
	http.Redirect(w, r, "/products", http.StatusSeeOther)
}

// productListResponse is the JSON shape of the API listing.
type productListResponse struct {
	Items      []*domain.Product `json:"items"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
}

// APIList serves the listing query contract as JSON.
func (h *ProductHandler) APIList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	if pageSize < 1 {
		pageSize = h.pageSize
	}
	if pageSize > maxAPIPageSize {
		pageSize = maxAPIPageSize
	}

	params := service.ListParams{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		SortBy:   q.Get("sortBy"),
		SortDesc: q.Get("sortDesc") == "true",
		Page:     page,
		PageSize: pageSize,
	}

	products, total, err := h.productService.ListProducts(r.Context(), params)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, productListResponse{
		Items:      products,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	})
}

// APIGet serves a single product as JSON.
func (h *ProductHandler) APIGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.productService.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if product == nil {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// render executes a template into a buffer first so a failed render can still
// produce a clean 500.
func (h *ProductHandler) render(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("Failed to render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *ProductHandler) renderError(w http.ResponseWriter, status int, message string) {
	h.render(w, status, "error.html", errorView{Status: status, Message: message})
}
