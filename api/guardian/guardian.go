package guardian

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/blindlink/guardian-connect-backend/db"
	"github.com/blindlink/guardian-connect-backend/db/model"
	"github.com/blindlink/guardian-connect-backend/middleware"
	"github.com/blindlink/guardian-connect-backend/storage"
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

const maxDocSize = 10 << 20

type Handlers struct {
	logger *log.Logger
}

// completeProfile takes the multipart form with contact fields plus the
// aadhaar and pan documents, uploads both and flips profile_completed.
func (h *Handlers) completeProfile(w http.ResponseWriter, r *http.Request) {
	g := r.Context().Value("guardian").(*model.Guardian)

	if err := r.ParseMultipartForm(2 * maxDocSize); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	phone := r.FormValue("phone")
	city := r.FormValue("city")
	location := r.FormValue("location")
	if phone == "" || city == "" || location == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("missing fields"))
		return
	}
	if len(phone) != 10 {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("phone number must be exactly 10 digits"))
		return
	}

	aadhaarURL, err := h.uploadDoc(r, "aadhaar", g.GuardianID)
	if err != nil {
		h.logger.Println(err)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("aadhaar document required"))
		return
	}
	panURL, err := h.uploadDoc(r, "pan", g.GuardianID)
	if err != nil {
		h.logger.Println(err)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("pan document required"))
		return
	}

	g.Phone = phone
	g.City = city
	g.Location = location
	g.AadhaarURL = aadhaarURL
	g.PanURL = panURL
	g.ProfileCompleted = true
	if err := db.GetDB(r.Context()).Save(g).Error; err != nil {
		h.logger.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(g)
}

func (h *Handlers) uploadDoc(r *http.Request, field, guardianID string) (string, error) {
	f, header, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return storage.Upload(r.Context(), f, field, guardianID, header.Filename)
}

// getGuardian is the public existence check the blind connect flow uses
// before sending a request. Only the public fields leave the server.
func (h *Handlers) getGuardian(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "guardianID")
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	var g model.Guardian
	err := db.GetDB(r.Context()).
		Where("LOWER(guardian_id) = ?", model.NormalizeGuardianID(id)).
		First(&g).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			w.WriteHeader(http.StatusNotFound)
		} else {
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(&OutPublicGuardian{
		GuardianID: g.GuardianID,
		Name:       g.Name,
	})
}

func (h *Handlers) SetupRoutes(r *chi.Mux) {
	r.Route("/guardians", func(r chi.Router) {
		r.Get("/{guardianID}", h.getGuardian)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticator(h.logger))
			r.Put("/profile", h.completeProfile)
		})
	})
}

func NewHandlers(l *log.Logger) *Handlers {
	return &Handlers{l}
}
