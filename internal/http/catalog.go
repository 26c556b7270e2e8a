package httpapi

import (
	"net/http"

	"github.com/mallkit/shop-admin-api/internal/catalog"
	"github.com/mallkit/shop-admin-api/internal/store"
)

func (a *App) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	f := store.ProductFilter{
		CategoryID: r.URL.Query().Get("category"),
		MinPrice:   queryInt64Ptr(r, "minPrice"),
		MaxPrice:   queryInt64Ptr(r, "maxPrice"),
		Search:     r.URL.Query().Get("search"),
		Page:       queryInt(r, "page", 1),
		PageSize:   queryInt(r, "limit", 10),
	}
	page, err := a.Catalog.ListProducts(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *App) getProductHandler(w http.ResponseWriter, r *http.Request) {
	p, err := a.Catalog.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if !decodeOrReject(w, r, &in) {
		return
	}
	p, err := a.Catalog.CreateProduct(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (a *App) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if !decodeOrReject(w, r, &in) {
		return
	}
	p, err := a.Catalog.UpdateProduct(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.Catalog.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func (a *App) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	cats, err := a.Catalog.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (a *App) getCategoryHandler(w http.ResponseWriter, r *http.Request) {
	c, err := a.Catalog.GetCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *App) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if !decodeOrReject(w, r, &in) {
		return
	}
	c, err := a.Catalog.CreateCategory(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *App) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if !decodeOrReject(w, r, &in) {
		return
	}
	c, err := a.Catalog.UpdateCategory(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *App) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.Catalog.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "category deleted"})
}
