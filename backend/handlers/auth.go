package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"neurostack/backend/config"
	"neurostack/backend/database"
	"neurostack/backend/models"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

var Store *sessions.CookieStore

// InitSession configures the session store with the secret and timeout
// from config. The secret is required and must not be guessable.
func InitSession() error {
	secret := config.C.Session.Secret
	if secret == "" {
		return errors.New("session secret is required (set SESSION_SECRET)")
	}
	if len(secret) < 32 {
		return errors.New("session secret must be at least 32 characters")
	}

	Store = sessions.NewCookieStore([]byte(secret))
	Store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(config.C.Session.Timeout.Seconds()),
		HttpOnly: true,
		Secure:   config.C.TLS.Enabled,
		SameSite: http.SameSiteLaxMode,
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func Register(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if len(creds.Password) < 6 {
		slog.Warn("registration failed: password too short", "source", "auth", "email", creds.Email)
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	var existing models.User
	if err := database.DB.Where("email = ?", creds.Email).First(&existing).Error; err == nil {
		slog.Warn("registration failed: email exists", "source", "auth", "email", creds.Email)
		writeError(w, http.StatusConflict, "Email already registered")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("registration failed: hash error", "source", "auth", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	user := models.User{Email: creds.Email, Password: string(hashed)}
	if err := database.DB.Create(&user).Error; err != nil {
		slog.Error("registration failed: db error", "source", "auth", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "Failed to create account")
		return
	}

	slog.Info("user registered", "source", "auth", "user_id", user.ID.String(), "email", creds.Email)

	session, _ := Store.Get(r, "session")
	session.Values["user_id"] = user.ID.String()
	session.Values["email"] = user.Email
	session.Save(r, w)

	writeJSON(w, http.StatusCreated, map[string]string{"id": user.ID.String(), "email": user.Email})
}

func Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	// One generic message for both misses: don't reveal whether the
	// account exists.
	var user models.User
	if err := database.DB.Where("email = ?", creds.Email).First(&user).Error; err != nil {
		slog.Warn("login failed: user not found", "source", "auth", "email", creds.Email)
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		slog.Warn("login failed: invalid password", "source", "auth", "email", creds.Email)
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	session, _ := Store.Get(r, "session")
	session.Values["user_id"] = user.ID.String()
	session.Values["email"] = user.Email
	session.Save(r, w)

	slog.Info("user logged in", "source", "auth", "user_id", user.ID.String(), "email", creds.Email)

	writeJSON(w, http.StatusOK, map[string]string{"id": user.ID.String(), "email": user.Email})
}

func Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := Store.Get(r, "session")
	userID, _ := session.Values["user_id"].(string)
	slog.Info("user logged out", "source", "auth", "user_id", userID)

	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	session.Save(r, w)

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me returns the current session's identity projection.
func Me(w http.ResponseWriter, r *http.Request) {
	user := GetCurrentUser(r)
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": user.ID.String(), "email": user.Email})
}

// GetCurrentUser is a variable to allow mocking in tests
var GetCurrentUser = func(r *http.Request) *models.User {
	session, err := Store.Get(r, "session")
	if err != nil {
		return nil
	}
	raw, ok := session.Values["user_id"].(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	var user models.User
	if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
		return nil
	}
	return &user
}
