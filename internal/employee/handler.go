package employee

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/storage"
	"github.com/frahmantamala/employee-directory/internal/transport"
	"github.com/go-chi/chi"
)

// DefaultMaxBodyBytes caps create and update bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 10 << 20

// multipartMemory is how much of a multipart body is kept in memory before
// spilling file parts to disk.
const multipartMemory = 8 << 20

const imageField = "image"

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateEmployeeDTO, img *storage.Image) (*Employee, error)
	List(ctx context.Context, department string) ([]*Employee, error)
	Get(ctx context.Context, id string) (*Employee, error)
	Update(ctx context.Context, id string, dto UpdateEmployeeDTO, img *storage.Image) (*Employee, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	*transport.BaseHandler
	Service      ServiceAPI
	maxBodyBytes int64
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewHandler(svc ServiceAPI, maxBodyBytes int64, lg *slog.Logger) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		BaseHandler:  transport.NewBaseHandler(lg),
		Service:      svc,
		maxBodyBytes: maxBodyBytes,
	}
}

// upload is the output of the parse stage.
type upload struct {
	fields UpdateEmployeeDTO
	image  *storage.Image
	close  func()
}

// CreateEmployee handles POST /employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	in, err := h.parseUpload(w, r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	defer in.close()

	e, err := h.Service.Create(r.Context(), in.fields.ToCreate(), in.image)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, e)
}

// ListEmployees handles GET /employees?department=
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.List(r.Context(), r.URL.Query().Get("department"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, employees)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	in, err := h.parseUpload(w, r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	defer in.close()

	e, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), in.fields, in.image)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Employee deleted successfully"})
}

// parseUpload reads multipart, urlencoded or JSON bodies into the same shape.
// Only multipart bodies can carry an image.
func (h *Handler) parseUpload(w http.ResponseWriter, r *http.Request) (upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	in := upload{close: func() {}}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return in, h.bodyError(err)
		}
		in.fields = fieldsFromForm(r.MultipartForm.Value)
		in.close = func() { r.MultipartForm.RemoveAll() }

		file, header, err := r.FormFile(imageField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
			// image is optional
		case err != nil:
			return in, h.bodyError(err)
		default:
			in.image = imageFromPart(file, header)
			in.close = func() {
				file.Close()
				r.MultipartForm.RemoveAll()
			}
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return in, h.bodyError(err)
		}
		in.fields = fieldsFromForm(r.PostForm)
	default:
		if err := json.NewDecoder(r.Body).Decode(&in.fields); err != nil {
			return in, h.bodyError(err)
		}
	}
	return in, nil
}

func (h *Handler) bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return internal.ErrRequestTooLarge
	}
	h.Logger.Debug("invalid request body", "error", err)
	return internal.ErrInvalidRequestBody
}

func fieldsFromForm(values map[string][]string) UpdateEmployeeDTO {
	get := func(key string) *string {
		v, ok := values[key]
		if !ok || len(v) == 0 {
			return nil
		}
		return &v[0]
	}
	return UpdateEmployeeDTO{
		FullName:   get("fullName"),
		Position:   get("position"),
		Department: get("department"),
		Email:      get("email"),
	}
}

func imageFromPart(file multipart.File, header *multipart.FileHeader) *storage.Image {
	return &storage.Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}
