package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"

	"burgerapi/pkg/burger"
	"burgerapi/pkg/otel"
)

const (
	routeGetBurger = "getBurger"
	maxBodyBytes   = 1 << 20
)

// listBurgersHandler returns every burger.
// @Summary List burgers
// @Produce json
// @Success 200 {array} burger.Burger
// @Failure 500 {object} errorResponse
// @Router /api/burgers [get]
func (s *Server) listBurgersHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "listBurgersHandler")
	defer span.End()

	burgers, err := s.repo.ListAll(ctx)
	if err != nil {
		s.internalError(ctx, w, "list burgers", err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, burgers)
}

// getBurgerHandler returns a single burger.
// @Summary Get burger
// @Produce json
// @Param id path int true "Burger ID"
// @Success 200 {object} burger.Burger
// @Header 200 {string} ETag "Version of the burger"
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /api/burgers/{id} [get]
func (s *Server) getBurgerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "getBurgerHandler")
	defer span.End()

	id, ok := s.pathID(ctx, w, r)
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int64("burger.id", id))

	found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.internalError(ctx, w, "get burger", err)
		return
	}
	b, ok := found.Get()
	if !ok {
		s.notFound(ctx, w, id)
		return
	}
	w.Header().Set("ETag", etag(b))
	s.writeJSON(ctx, w, http.StatusOK, b)
}

// createBurgerHandler stores a new burger.
// @Summary Create burger
// @Accept json
// @Produce json
// @Param burger body burger.Burger true "Burger"
// @Success 201 {object} burger.Burger
// @Header 201 {string} Location "URL of the new burger"
// @Header 201 {string} ETag "Version of the burger"
// @Failure 400 {object} errorResponse
// @Router /api/burgers [post]
func (s *Server) createBurgerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "createBurgerHandler")
	defer span.End()

	var b burger.Burger
	if !s.decode(ctx, w, r, &b) {
		return
	}
	created, err := s.repo.Insert(ctx, b)
	if err != nil {
		s.internalError(ctx, w, "create burger", err)
		return
	}
	span.SetAttributes(attribute.Int64("burger.id", created.ID))

	loc, err := s.router.Get(routeGetBurger).URL("id", strconv.FormatInt(created.ID, 10))
	if err != nil {
		s.internalError(ctx, w, "build burger location", err)
		return
	}
	w.Header().Set("Location", loc.String())
	w.Header().Set("ETag", etag(created))
	s.writeJSON(ctx, w, http.StatusCreated, created)
}

// updateBurgerHandler replaces an existing burger.
// @Summary Update burger
// @Accept json
// @Param id path int true "Burger ID"
// @Param If-Match header string false "ETag from a previous read"
// @Param burger body burger.Burger true "Burger"
// @Success 204
// @Header 204 {string} ETag "New version of the burger"
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /api/burgers/{id} [put]
func (s *Server) updateBurgerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateBurgerHandler")
	defer span.End()

	id, ok := s.pathID(ctx, w, r)
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int64("burger.id", id))

	var b burger.Burger
	if !s.decode(ctx, w, r, &b) {
		return
	}
	if err := burger.CheckID(id, b); err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	version, err := parseIfMatch(r.Header.Get("If-Match"), id)
	if err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	b.Version = version

	updated, err := s.repo.Update(ctx, b)
	switch {
	case err == nil:
	case errors.Is(err, burger.ErrNotFound):
		s.notFound(ctx, w, id)
		return
	case errors.Is(err, burger.ErrConflict):
		s.writeError(ctx, w, http.StatusConflict, err.Error())
		return
	default:
		s.internalError(ctx, w, "update burger", err)
		return
	}
	w.Header().Set("ETag", etag(updated))
	w.WriteHeader(http.StatusNoContent)
}

// deleteBurgerHandler removes a burger and returns it.
// @Summary Delete burger
// @Produce json
// @Param id path int true "Burger ID"
// @Success 200 {object} burger.Burger
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /api/burgers/{id} [delete]
func (s *Server) deleteBurgerHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "deleteBurgerHandler")
	defer span.End()

	id, ok := s.pathID(ctx, w, r)
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int64("burger.id", id))

	removed, err := s.repo.Delete(ctx, id)
	if errors.Is(err, burger.ErrConflict) {
		s.writeError(ctx, w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.internalError(ctx, w, "delete burger", err)
		return
	}
	b, ok := removed.Get()
	if !ok {
		s.notFound(ctx, w, id)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, b)
}

func (s *Server) pathID(ctx context.Context, w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, "invalid burger id")
		return 0, false
	}
	return id, true
}

func (s *Server) decode(ctx context.Context, w http.ResponseWriter, r *http.Request, b *burger.Burger) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(b); err != nil {
		s.writeError(ctx, w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) notFound(ctx context.Context, w http.ResponseWriter, id int64) {
	s.writeError(ctx, w, http.StatusNotFound, fmt.Sprintf("burger %d not found", id))
}

// etag renders the weak validator W/"<id>-<version>".
func etag(b burger.Burger) string {
	return fmt.Sprintf(`W/"%d-%d"`, b.ID, b.Version)
}

// parseIfMatch extracts the expected version from an If-Match header.
// An empty header or "*" means any version. A validator for another id can never match.
func parseIfMatch(header string, id int64) (int64, error) {
	header = strings.TrimSpace(header)
	if header == "" || header == "*" {
		return 0, nil
	}
	v := strings.TrimPrefix(header, "W/")
	v, err := strconv.Unquote(v)
	if err != nil {
		return 0, fmt.Errorf("invalid If-Match header %q", header)
	}
	idPart, versionPart, ok := strings.Cut(v, "-")
	if !ok {
		return 0, fmt.Errorf("invalid If-Match header %q", header)
	}
	etagID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid If-Match header %q", header)
	}
	version, err := strconv.ParseInt(versionPart, 10, 64)
	if err != nil || version < 1 {
		return 0, fmt.Errorf("invalid If-Match header %q", header)
	}
	if etagID != id {
		// -1 never equals a stored version, so the store reports a conflict.
		return -1, nil
	}
	return version, nil
}
