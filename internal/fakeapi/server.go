// Package fakeapi is an in-process double of the birthday record
// store, implementing the exact HTTP surface the bot consumes:
// public-key handshake, encrypted login with a JWT CSRF cookie, and
// per-owner birthday CRUD backed by in-memory sqlite.
package fakeapi

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"sync"
	"time"

	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"birthdaybot/pkg/generator"
)

const tokenTTL = time.Hour

type Server struct {
	store     *Store
	jwtSecret []byte

	mu         sync.Mutex
	key        *rsa.PrivateKey
	secretHash []byte
	logins     map[string]int
}

// NewServer builds a fake record store that accepts logins proving
// knowledge of botSecret. The secret itself is only kept as a bcrypt
// hash, the way the real store verifies it.
func NewServer(botSecret string) (*Server, error) {
	store, err := NewStore()
	if err != nil {
		return nil, err
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		store.Close()
		return nil, err
	}

	secretHash, err := bcrypt.GenerateFromPassword([]byte(botSecret), bcrypt.MinCost)
	if err != nil {
		store.Close()
		return nil, err
	}

	jwtSecret, err := generator.GenerateRandomID(32)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Server{
		store:      store,
		jwtSecret:  []byte(jwtSecret),
		key:        key,
		secretHash: secretHash,
		logins:     make(map[string]int),
	}, nil
}

func (s *Server) Close() {
	s.store.Close()
}

// Handler returns the full route set.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(recoverPanic)
	r.Use(s.checkCSRF)

	r.HandleFunc("/public-key", s.publicKey).Methods("GET")
	r.HandleFunc("/login", s.login).Methods("GET")
	r.HandleFunc("/admin/login", s.adminLogin).Methods("GET")

	r.HandleFunc("/birthdays", s.createBirthday).Methods("POST")
	r.HandleFunc("/birthdays", s.listBirthdays).Methods("GET")
	r.HandleFunc("/birthdays/{id:[0-9]+}", s.getBirthday).Methods("GET")
	r.HandleFunc("/birthdays/{id:[0-9]+}", s.updateBirthday).Methods("PUT")
	r.HandleFunc("/birthdays/{id:[0-9]+}", s.deleteBirthday).Methods("DELETE")

	r.HandleFunc("/admin/birthdays/incoming", s.incomingBirthdays).Methods("GET")

	return r
}

// RotateKey replaces the RSA keypair, invalidating any public key a
// client may have cached.
func (s *Server) RotateKey() error {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
	return nil
}

// LoginCount reports how many successful logins an identity has
// performed; admin logins count under "admin".
func (s *Server) LoginCount(identity string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins[identity]
}

// Store exposes the backing store for test seeding.
func (s *Server) Records() *Store {
	return s.store
}

func (s *Server) publicKeyPEM() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	der, err := x509.MarshalPKIXPublicKey(&s.key.PublicKey)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// verifySecret OAEP-decrypts the presented credential and compares it
// against the stored bcrypt hash.
func (s *Server) verifySecret(encrypted string) bool {
	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return false
	}

	s.mu.Lock()
	key := s.key
	hash := s.secretHash
	s.mu.Unlock()

	secret, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, key, ciphertext, nil)
	if err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, secret) == nil
}

func (s *Server) countLogin(identity string) {
	s.mu.Lock()
	s.logins[identity]++
	s.mu.Unlock()
}
