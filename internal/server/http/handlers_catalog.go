package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/and161185/shopkeeper/internal/model"
)

type productDTO struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	ImagePath  string `json:"image_path,omitempty"`
}

type productRequest struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	ImagePath  string `json:"image_path"`
	Token      string `json:"csrf_token"`
}

func toProductDTO(p model.Product) productDTO {
	return productDTO{
		ID:         p.ID,
		CategoryID: p.CategoryID,
		Name:       p.Name,
		PriceCents: p.PriceCents,
		ImagePath:  p.ImagePath,
	}
}

func chiURLParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	var categoryID int64
	if v := r.URL.Query().Get("category"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 0 {
			s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid category filter"})
			return
		}
		categoryID = id
	}
	ps, err := s.catalog.ListProducts(r.Context(), categoryID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := make([]productDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductDTO(p))
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chiURLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}
	p, err := s.catalog.GetProduct(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toProductDTO(*p))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := s.catalog.ListCategories(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	type categoryDTO struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	out := make([]categoryDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, categoryDTO{ID: c.ID, Name: c.Name})
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	p := model.Product{
		CategoryID: req.CategoryID,
		Name:       req.Name,
		PriceCents: req.PriceCents,
		ImagePath:  req.ImagePath,
	}
	if err := s.catalog.CreateProduct(r.Context(), &p); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, toProductDTO(p))
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chiURLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}
	var req productRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	p := model.Product{
		ID:         id,
		CategoryID: req.CategoryID,
		Name:       req.Name,
		PriceCents: req.PriceCents,
		ImagePath:  req.ImagePath,
	}
	if err := s.catalog.UpdateProduct(r.Context(), &p); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, toProductDTO(p))
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chiURLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id"})
		return
	}
	if err := s.catalog.DeleteProduct(r.Context(), id); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Token string `json:"csrf_token"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	c, err := s.catalog.CreateCategory(r.Context(), req.Name)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"id": c.ID, "name": c.Name})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chiURLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid category id"})
		return
	}
	if err := s.catalog.DeleteCategory(r.Context(), id); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
