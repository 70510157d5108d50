package compilesvc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dekarrin/yunic/internal/compilesvc/dao"
)

// bcryptCost mirrors the teacher's own choice of a cost well above the
// library default, trading login latency for resistance to offline
// cracking of a leaked hash column.
const bcryptCost = 12

// ctxKey namespaces context values this package sets, so they cannot
// collide with keys set by a different package sharing the request
// context.
type ctxKey int

const (
	ctxKeyAuthed ctxKey = iota
	ctxKeyAPIKey
)

// hashAPIKey bcrypt-hashes a freshly generated plaintext API key before
// it is persisted; the plaintext itself is returned to the caller
// exactly once and never stored.
func hashAPIKey(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
}

// newPlaintextKey mints a fresh API key ID and its plaintext form. The
// plaintext embeds the ID so a login request can fetch the matching
// stored hash directly instead of bcrypt-comparing against every row.
func newPlaintextKey() (uuid.UUID, string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("generate key id: %w", err)
	}
	secret, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("generate key secret: %w", err)
	}
	return id, fmt.Sprintf("yk_%s_%s", id.String(), secret.String()), nil
}

// splitPlaintextKey recovers the embedded key ID from a plaintext key
// presented at login.
func splitPlaintextKey(plaintext string) (uuid.UUID, error) {
	if !strings.HasPrefix(plaintext, "yk_") {
		return uuid.Nil, fmt.Errorf("malformed API key")
	}
	rest := strings.TrimPrefix(plaintext, "yk_")
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return uuid.Nil, fmt.Errorf("malformed API key")
	}
	return uuid.Parse(parts[0])
}

// issueJWT mints a short-lived bearer token for an authenticated API
// key, signed with HS512 over the service secret plus the key's own
// hash. Revoking a key also invalidates tokens already issued for it:
// validateBearer rejects any token whose key is marked revoked.
func issueJWT(secret []byte, key dao.APIKey) (string, error) {
	claims := jwt.MapClaims{
		"iss": "yunic-compilesvc",
		"sub": key.ID.String(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	signKey := append(append([]byte{}, secret...), key.Hash...)
	return tok.SignedString(signKey)
}

func bearerToken(req *http.Request) (string, error) {
	header := strings.TrimSpace(req.Header.Get("Authorization"))
	if header == "" {
		return "", fmt.Errorf("no authorization header present")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// validateBearer parses and validates tok, looking up the signing key's
// material from keys by the token's subject claim.
func validateBearer(ctx context.Context, tok string, secret []byte, keys dao.KeyRepository) (dao.APIKey, error) {
	var key dao.APIKey

	_, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		subj, err := t.Claims.GetSubject()
		if err != nil {
			return nil, fmt.Errorf("get subject: %w", err)
		}
		id, err := uuid.Parse(subj)
		if err != nil {
			return nil, fmt.Errorf("parse subject: %w", err)
		}

		key, err = keys.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("subject could not be validated")
		}
		if key.Revoked {
			return nil, fmt.Errorf("key has been revoked")
		}

		return append(append([]byte{}, secret...), key.Hash...), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer("yunic-compilesvc"), jwt.WithLeeway(time.Minute))

	if err != nil {
		return dao.APIKey{}, err
	}
	return key, nil
}

// authenticateKey verifies a plaintext API key presented at login
// against its stored bcrypt hash.
func authenticateKey(ctx context.Context, plaintext string, keys dao.KeyRepository) (dao.APIKey, error) {
	id, err := splitPlaintextKey(plaintext)
	if err != nil {
		return dao.APIKey{}, ErrBadCredentials
	}

	key, err := keys.GetByID(ctx, id)
	if err != nil {
		return dao.APIKey{}, ErrBadCredentials
	}
	if key.Revoked {
		return dao.APIKey{}, ErrBadCredentials
	}

	if err := bcrypt.CompareHashAndPassword(key.Hash, []byte(plaintext)); err != nil {
		return dao.APIKey{}, ErrBadCredentials
	}

	return key, nil
}

// requireAuth wraps next with bearer-JWT authentication: requests
// without a valid token never reach it.
func (s *Service) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		tok, err := bearerToken(req)
		if err != nil {
			Unauthorized("", err.Error()).WriteResponse(w)
			return
		}

		key, err := validateBearer(req.Context(), tok, s.secret, s.db.Keys())
		if err != nil {
			Unauthorized("", err.Error()).WriteResponse(w)
			return
		}

		ctx := context.WithValue(req.Context(), ctxKeyAuthed, true)
		ctx = context.WithValue(ctx, ctxKeyAPIKey, key)
		next(w, req.WithContext(ctx))
	}
}

func authedKey(req *http.Request) (dao.APIKey, bool) {
	key, ok := req.Context().Value(ctxKeyAPIKey).(dao.APIKey)
	return key, ok
}
