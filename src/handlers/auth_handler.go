package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	db "taxtrack-server/src/db/sql"
	"taxtrack-server/src/models"
	"taxtrack-server/src/util"
)

func Register(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode register request body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		req.Username = strings.TrimSpace(req.Username)

		if !util.ValidateEmail(req.Email) {
			log.Printf("ERROR: Email validation failed during registration - Email: %s", req.Email)
			http.Error(w, "invalid email format", http.StatusBadRequest)
			return
		}

		if !util.ValidateUsername(req.Username) {
			log.Printf("ERROR: Username validation failed during registration - Username: %s", req.Username)
			http.Error(w, "username must be between 3 and 30 characters", http.StatusBadRequest)
			return
		}

		if !util.ValidatePassword(req.Password) {
			log.Printf("ERROR: Password validation failed during registration - Username: %s", req.Username)
			http.Error(w, "password must be at least 8 characters with uppercase, lowercase, digit, and special character", http.StatusBadRequest)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("ERROR: Failed to hash password for user %s: %v", req.Username, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		resp, err := db.CreateUser(r.Context(), pool, req, string(hashedPassword))
		if err != nil {
			if strings.Contains(err.Error(), "duplicate key") {
				http.Error(w, "email or username already registered", http.StatusConflict)
				return
			}
			log.Printf("ERROR: Failed to create user %s: %v", req.Username, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		log.Printf("INFO: Registered user %s (id %d)", resp.Username, resp.ID)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(resp)
	}
}

func Login(pool *pgxpool.Pool, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode login request body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		userID, hash, superAdmin, err := db.GetUserCredentials(r.Context(), pool, strings.TrimSpace(req.Username))
		if err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		claims := jwt.MapClaims{
			"user_id":     userID,
			"username":    req.Username,
			"super_admin": superAdmin,
			"exp":         time.Now().Add(24 * time.Hour).Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(jwtSecret))
		if err != nil {
			log.Printf("ERROR: Failed to sign token for user %s: %v", req.Username, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		log.Printf("INFO: User %s logged in", req.Username)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token":   signed,
			"user_id": userID,
		})
	}
}

func ChangePassword(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		var req struct {
			CurrentPassword string `json:"current_password"`
			NewPassword     string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode change password request body for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		hash, err := db.GetPasswordHash(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to load password hash for user %d: %v", userID, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.CurrentPassword)); err != nil {
			http.Error(w, "current password is incorrect", http.StatusUnauthorized)
			return
		}

		if !util.ValidatePassword(req.NewPassword) {
			http.Error(w, "password must be at least 8 characters with uppercase, lowercase, digit, and special character", http.StatusBadRequest)
			return
		}

		newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("ERROR: Failed to hash new password for user %d: %v", userID, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if err := db.UpdatePassword(r.Context(), pool, userID, string(newHash)); err != nil {
			log.Printf("ERROR: Failed to update password for user %d: %v", userID, err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		log.Printf("INFO: User %d changed password", userID)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "password updated"})
	}
}
