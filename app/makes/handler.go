package makes

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/AsyncXeNo/zenrenne-backend/app/api"
	"github.com/AsyncXeNo/zenrenne-backend/app/apierror"
	"github.com/AsyncXeNo/zenrenne-backend/app/storage"
	"github.com/AsyncXeNo/zenrenne-backend/models"
)

type MakeResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

type MakeProvider interface {
	GetAllMakes(ctx context.Context) ([]models.Make, error)
	ListByProduct(ctx context.Context, productID uint) ([]models.Make, error)
	CreateMake(ctx context.Context, m *models.Make) error
	DeleteMake(ctx context.Context, id uint) (*models.Make, error)
}

type ProductChecker interface {
	Exists(ctx context.Context, id uint) error
}

type FileStore interface {
	Save(dir, filename string, r io.Reader) (string, error)
	DeleteLater(keys ...string)
	URL(key string) string
}

type MakeHandler struct {
	repo     MakeProvider
	products ProductChecker
	files    FileStore
}

func NewMakeHandler(r MakeProvider, products ProductChecker, files FileStore) *MakeHandler {
	return &MakeHandler{repo: r, products: products, files: files}
}

func (h *MakeHandler) toResponse(list []models.Make) []MakeResponse {
	response := make([]MakeResponse, len(list))
	for i, m := range list {
		response[i] = MakeResponse{ID: m.ID, Name: m.Name, Icon: h.files.URL(m.Icon)}
	}
	return response
}

func (h *MakeHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.GetAllMakes(r.Context())
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	apierror.JSON(w, http.StatusOK, h.toResponse(list))
}

// HandleGetByProduct lists the makes a product is directly connected to.
func (h *MakeHandler) HandleGetByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := api.PathID(r, "product_id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	if err := h.products.Exists(r.Context(), productID); err != nil {
		apierror.Write(w, r, err)
		return
	}

	list, err := h.repo.ListByProduct(r.Context(), productID)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	apierror.JSON(w, http.StatusOK, h.toResponse(list))
}

type createMakeInput struct {
	Name string `json:"name" form:"name" validate:"required,notblank,max=50"`
}

// HandleCreate accepts JSON {"name"} or a multipart form with name and an
// optional icon file.
func (h *MakeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input createMakeInput
	multipart := api.IsMultipart(r)
	if multipart {
		if err := api.ParseForm(w, r); err != nil {
			apierror.Write(w, r, err)
			return
		}
		input.Name = r.FormValue("name")
	} else if err := api.Decode(r, &input); err != nil {
		apierror.Write(w, r, err)
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := api.Validate(input); err != nil {
		apierror.Write(w, r, err)
		return
	}

	m := &models.Make{Name: input.Name}
	if multipart {
		f, fh, err := api.FormFile(r, "icon", false, ".png", ".jpg", ".jpeg", ".svg", ".webp")
		if err != nil {
			apierror.Write(w, r, err)
			return
		}
		if f != nil {
			defer f.Close()
			key, err := h.files.Save(storage.DirMakeIcons, fh.Filename, f)
			if err != nil {
				apierror.Write(w, r, err)
				return
			}
			m.Icon = key
		}
	}

	if err := h.repo.CreateMake(r.Context(), m); err != nil {
		if m.Icon != "" {
			h.files.DeleteLater(m.Icon)
		}
		apierror.Write(w, r, err)
		return
	}

	apierror.Logger(r).Info().Uint("make_id", m.ID).Str("name", m.Name).Msg("make created")
	apierror.JSON(w, http.StatusCreated, MakeResponse{ID: m.ID, Name: m.Name, Icon: h.files.URL(m.Icon)})
}

// HandleDelete removes an unreferenced make and its icon.
func (h *MakeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := api.PathID(r, "id")
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	m, err := h.repo.DeleteMake(r.Context(), id)
	if err != nil {
		apierror.Write(w, r, err)
		return
	}
	if m.Icon != "" {
		h.files.DeleteLater(m.Icon)
	}
	w.WriteHeader(http.StatusNoContent)
}
