package fakeapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/mux"

	"birthdaybot/pkg/birthday"
)

func (s *Server) publicKey(w http.ResponseWriter, r *http.Request) {
	pemBytes, err := s.publicKeyPEM()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"public_key": string(pemBytes)})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("id")
	if identity == "" {
		http.Error(w, `{"message":"missing id"}`, http.StatusBadRequest)
		return
	}
	s.issueToken(w, r, identity, false)
}

func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	s.issueToken(w, r, "admin", true)
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, identity string, admin bool) {
	if !s.verifySecret(r.URL.Query().Get("encrypted_bot_id")) {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	claims := Claims{
		Identity: identity,
		Admin:    admin,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().UTC().Unix(),
			ExpiresAt: time.Now().Add(tokenTTL).UTC().Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:  "csrf_access_token",
		Value: token,
		Path:  "/",
	})
	s.countLogin(identity)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) createBirthday(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r)

	var b birthday.Birthday
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, `{"message":"bad json"}`, http.StatusBadRequest)
		return
	}

	if birthday.ValidateDate(b.Day, b.Month, b.Year, time.Now()) != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"field": "date"})
		return
	}

	id, err := s.store.Create(claims.Identity, b)
	if err != nil {
		if errors.Is(err, errDuplicateName) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"field": "name"})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	b.ID = id
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) listBirthdays(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r)

	list, err := s.store.List(claims.Identity)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(list) == 0 {
		http.Error(w, `{"message":"no birthdays"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getBirthday(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r)
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	b, err := s.store.Get(claims.Identity, id)
	if err != nil {
		if errors.Is(err, errNoRows) {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) updateBirthday(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r)
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	var b birthday.Birthday
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, `{"message":"bad json"}`, http.StatusBadRequest)
		return
	}

	if birthday.ValidateDate(b.Day, b.Month, b.Year, time.Now()) != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"field": "date"})
		return
	}

	if err := s.store.Update(claims.Identity, id, b); err != nil {
		switch {
		case errors.Is(err, errDuplicateName):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"field": "name"})
		case errors.Is(err, errNoRows):
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
}

func (s *Server) deleteBirthday(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r)
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if err := s.store.Delete(claims.Identity, id); err != nil {
		if errors.Is(err, errNoRows) {
			http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func (s *Server) incomingBirthdays(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r)
	if !claims.Admin {
		http.Error(w, `{"message":"forbidden"}`, http.StatusForbidden)
		return
	}

	list, err := s.store.Incoming(time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(list) == 0 {
		http.Error(w, `{"message":"no birthdays"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
