package credential

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Encryptor turns the bot's shared secret into a login credential:
// it fetches the record-store public key once, caches it, and
// RSA-OAEP encrypts the secret with it. OAEP output is randomized,
// so repeated calls yield different ciphertexts for the same key.
type Encryptor struct {
	client  *http.Client
	baseURL string
	secret  string

	mu  sync.Mutex
	key *rsa.PublicKey
}

func NewEncryptor(baseURL, secret string, client *http.Client) *Encryptor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Encryptor{
		client:  client,
		baseURL: baseURL,
		secret:  secret,
	}
}

// Credential returns the base64 OAEP ciphertext of the bot secret.
// forceRefresh discards the cached key first; callers use it for a
// single retry after a login rejection (covers server key rotation).
// The key cache is shared by every session the process creates.
func (e *Encryptor) Credential(ctx context.Context, forceRefresh bool) (string, error) {
	key, err := e.cachedKey(ctx, forceRefresh)
	if err != nil {
		return "", err
	}

	encrypted, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, key, []byte(e.secret), nil)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt bot secret: %w", err)
	}

	return base64.StdEncoding.EncodeToString(encrypted), nil
}

func (e *Encryptor) cachedKey(ctx context.Context, forceRefresh bool) (*rsa.PublicKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.key == nil || forceRefresh {
		key, err := e.fetchPublicKey(ctx)
		if err != nil {
			return nil, err
		}
		e.key = key
	}
	return e.key, nil
}

func (e *Encryptor) fetchPublicKey(ctx context.Context) (*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/public-key", nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request public key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to request public key: status %d", resp.StatusCode)
	}

	var payload struct {
		PublicKey string `json:"public_key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("bad public key response: %w", err)
	}

	block, _ := pem.Decode([]byte(payload.PublicKey))
	if block == nil {
		return nil, errors.New("bad public key response: not PEM")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("bad public key response: %w", err)
	}

	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("bad public key response: not an RSA key")
	}

	return key, nil
}
