package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/mail"
	"strconv"
	"time"

	"github.com/blindlink/guardian-connect-backend/db"
	"github.com/blindlink/guardian-connect-backend/db/model"
	"github.com/blindlink/guardian-connect-backend/idgen"
	"github.com/blindlink/guardian-connect-backend/middleware"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Handlers struct {
	logger *log.Logger
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	encoder, decoder := json.NewEncoder(w), json.NewDecoder(r.Body)
	decoder.Decode(&body)
	if body.Name == "" || body.Email == "" || body.Password == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid input"))
		return
	}
	if addr, err := mail.ParseAddress(body.Email); err != nil {
		h.logger.Println(err)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid email"))
		return
	} else {
		body.Email = addr.Address
	}
	if exists, err := isGuardianExist(r.Context(), body.Email); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	} else if exists {
		w.WriteHeader(http.StatusConflict)
		encoder.Encode("email exists")
		return
	}

	db := db.GetDB(r.Context())
	passBytes, err := bcrypt.GenerateFromPassword([]byte(body.Password), 14)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	gid, err := nextGuardianID(r.Context())
	if err != nil {
		h.logger.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	g := &model.Guardian{
		GuardianID: gid,
		Name:       body.Name,
		Email:      body.Email,
		Pass:       string(passBytes),
	}
	if db.Create(g).Error != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	encoder.Encode(g)
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) signin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Println(err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if len(body.Email) < 1 || len(body.Password) < 1 {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("invalid input"))
		return
	}

	c := r.Context()
	g, err := getGuardianFromEmail(c, body.Email)
	if err != nil {
		h.logger.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if g == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(g.Pass), []byte(body.Password)) != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	ip := c.Value("deviceIP").(string)
	s := &model.Session{}
	if err := db.GetDB(c).Where(&model.Session{GuardianID: g.ID, IP: ip}).First(s).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.logger.Println(err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if s, err = insertSession(c, g.ID, ip); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			h.logger.Println(err)
			return
		}
	}

	accessToken, err := genAccessToken(ip, strconv.FormatUint(uint64(g.ID), 10))
	if err != nil {
		h.logger.Println(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    accessToken,
		Expires:  time.Now().Add(2 * time.Hour),
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	json.NewEncoder(w).Encode(&OutSignin{
		AccessToken:      accessToken,
		GuardianID:       g.GuardianID,
		ProfileCompleted: g.ProfileCompleted,
	})
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) signout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) user(w http.ResponseWriter, r *http.Request) {
	g := r.Context().Value("guardian").(*model.Guardian)
	encoder := json.NewEncoder(w)
	w.WriteHeader(http.StatusOK)
	if err := encoder.Encode(g); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (h *Handlers) SetupRoutes(r *chi.Mux) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/signin", h.signin)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticator(h.logger))
			r.With(middleware.NoCache).Get("/user", h.user)
			r.Post("/signout", h.signout)
		})
	})
}

func isGuardianExist(ctx context.Context, email string) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var exists bool
	err := db.GetDB(ctx).Raw("SELECT EXISTS(SELECT 1 FROM guardians WHERE email = ?)", email).Scan(&exists).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = nil
	}
	return exists, err
}

func getGuardianFromEmail(ctx context.Context, email string) (g *model.Guardian, err error) {
	g = &model.Guardian{}
	if ctx == nil {
		ctx = context.Background()
	}
	if err = db.GetDB(ctx).First(g, "email = ?", email).Error; err != nil {
		g = nil
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = nil
		}
	}
	return
}

// nextGuardianID continues the Guardian001 sequence from the most recently
// issued id. Not transactional, concurrent signups collide on the unique
// index and the loser gets a 500.
func nextGuardianID(ctx context.Context) (string, error) {
	var last model.Guardian
	err := db.GetDB(ctx).Order("created_at DESC").Limit(1).Find(&last).Error
	if err != nil {
		return "", err
	}
	return idgen.Next(idgen.GuardianPrefix, last.GuardianID), nil
}

func insertSession(ctx context.Context, guardianID uint, ip string) (session *model.Session, err error) {
	k := fmt.Sprintf("%s:%s", strconv.FormatUint(uint64(guardianID), 10), ip)

	h := sha256.New()
	h.Write([]byte(k))
	ch := hex.EncodeToString(h.Sum(nil))

	session = &model.Session{
		GuardianID: guardianID,
		IP:         ip,
		Ch:         ch,
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err = db.GetDB(ctx).Create(session).Error; err != nil {
		session = nil
	}
	return
}

func NewHandlers(logger *log.Logger) *Handlers {
	return &Handlers{logger}
}
