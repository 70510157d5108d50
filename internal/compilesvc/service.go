// Package compilesvc exposes the compiler pipeline as an HTTP service:
// bearer-JWT sessions backed by bcrypt-hashed API keys, a POST /compile
// endpoint running the same yunic.Compile used by cmd/yunic, and a
// sqlite-backed history of past compiles scoped to the key that
// requested them.
package compilesvc

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dekarrin/yunic"
	"github.com/dekarrin/yunic/internal/compilesvc/dao"
	"github.com/dekarrin/yunic/internal/config"
	"github.com/dekarrin/yunic/internal/ir"
)

// PathPrefix is the prefix every route is mounted under.
const PathPrefix = "/api/v1"

// Service holds everything an endpoint needs: the storage backend, the
// JWT signing secret, the admin bootstrap token required to mint new
// API keys, the compiler profile new compiles run under, and the delay
// applied before an unauthorized/forbidden/error response is sent.
type Service struct {
	db          dao.Store
	secret      []byte
	adminToken  string
	profile     config.Profile
	unauthDelay time.Duration
}

// New builds a Service. secret signs issued JWTs; adminToken must be
// presented via the X-Admin-Token header to mint new API keys.
func New(db dao.Store, secret []byte, adminToken string, profile config.Profile) *Service {
	return &Service{db: db, secret: secret, adminToken: adminToken, profile: profile, unauthDelay: 500 * time.Millisecond}
}

// Router builds the chi router serving every endpoint under PathPrefix.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route(PathPrefix, func(r chi.Router) {
		r.Get("/info", s.wrap(s.handleInfo))
		r.Post("/keys", s.wrap(s.handleCreateKey))
		r.Post("/login", s.wrap(s.handleLogin))
		r.Post("/compile", s.wrap(s.requireAuth(s.handleCompile)))
		r.Get("/history", s.wrap(s.requireAuth(s.handleHistoryList)))
		r.Get("/history/{id}", s.wrap(s.requireAuth(s.handleHistoryGet)))
	})

	return r
}

// wrap adds the panic-to-500 and delayed-error-response behavior the
// teacher's own HTTP layer applies around every endpoint, so one
// misbehaving handler cannot take down the listener and a failed-auth
// response cannot be used to time-probe the service.
func (s *Service) wrap(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				InternalServerError(fmt.Sprintf("panic: %v\n%s", p, debug.Stack())).WriteResponse(w)
			}
		}()
		rec := &statusRecorder{ResponseWriter: w}
		h(rec, req)
		if rec.status == http.StatusUnauthorized || rec.status == http.StatusForbidden || rec.status == http.StatusInternalServerError {
			time.Sleep(s.unauthDelay)
		}
	}
}

// statusRecorder remembers the status an endpoint wrote, so wrap can
// decide whether to apply the unauthorized-response delay after the
// fact without endpoints needing to report their own status twice.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Service) handleInfo(w http.ResponseWriter, req *http.Request) {
	OK(map[string]string{"target": s.profile.Target}).WriteResponse(w)
}

type createKeyRequest struct {
	Label string `json:"label"`
}

type createKeyResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Key   string `json:"key"`
}

func (s *Service) handleCreateKey(w http.ResponseWriter, req *http.Request) {
	given := req.Header.Get("X-Admin-Token")
	if subtle.ConstantTimeCompare([]byte(given), []byte(s.adminToken)) != 1 {
		Forbidden("bad admin token").WriteResponse(w)
		return
	}

	var body createKeyRequest
	if err := parseJSON(req, &body); err != nil {
		BadRequest("malformed request body", err.Error()).WriteResponse(w)
		return
	}
	if strings.TrimSpace(body.Label) == "" {
		BadRequest("label is required").WriteResponse(w)
		return
	}

	id, plaintext, err := newPlaintextKey()
	if err != nil {
		InternalServerError(err.Error()).WriteResponse(w)
		return
	}
	hash, err := hashAPIKey(plaintext)
	if err != nil {
		InternalServerError(err.Error()).WriteResponse(w)
		return
	}

	key, err := s.db.Keys().Create(req.Context(), dao.APIKey{ID: id, Label: body.Label, Hash: hash})
	if err != nil {
		InternalServerError(err.Error()).WriteResponse(w)
		return
	}

	Created(createKeyResponse{ID: key.ID.String(), Label: key.Label, Key: plaintext}).WriteResponse(w)
}

type loginRequest struct {
	Key string `json:"key"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (s *Service) handleLogin(w http.ResponseWriter, req *http.Request) {
	var body loginRequest
	if err := parseJSON(req, &body); err != nil {
		BadRequest("malformed request body", err.Error()).WriteResponse(w)
		return
	}

	key, err := authenticateKey(req.Context(), body.Key, s.db.Keys())
	if err != nil {
		Unauthorized("invalid API key", err.Error()).WriteResponse(w)
		return
	}

	tok, err := issueJWT(s.secret, key)
	if err != nil {
		InternalServerError(err.Error()).WriteResponse(w)
		return
	}

	OK(loginResponse{Token: tok}).WriteResponse(w)
}

type compileRequest struct {
	Source string `json:"source"`
}

type compileResponse struct {
	ID          string   `json:"id"`
	Success     bool     `json:"success"`
	Summary     string   `json:"summary"`
	Diagnostics []string `json:"diagnostics"`
	IR          string   `json:"ir,omitempty"`
}

func (s *Service) handleCompile(w http.ResponseWriter, req *http.Request) {
	key, _ := authedKey(req)

	var body compileRequest
	if err := parseJSON(req, &body); err != nil {
		BadRequest("malformed request body", err.Error()).WriteResponse(w)
		return
	}
	if strings.TrimSpace(body.Source) == "" {
		BadRequest("source is required").WriteResponse(w)
		return
	}

	result := yunic.Compile(body.Source, s.profile)
	irDump := ""
	if result.Module != nil {
		irDump = RenderModule(result.Module)
	}

	rec, err := s.db.History().Create(req.Context(), dao.CompileRecord{
		KeyID:       key.ID,
		Target:      s.profile.Target,
		Source:      body.Source,
		Success:     result.Module != nil,
		Summary:     yunic.Summary(result),
		Diagnostics: result.Bag.Strings(s.profile.DiagWidth),
		IRDump:      irDump,
	})
	if err != nil {
		InternalServerError(err.Error()).WriteResponse(w)
		return
	}

	OK(compileResponse{
		ID:          rec.ID.String(),
		Success:     rec.Success,
		Summary:     rec.Summary,
		Diagnostics: rec.Diagnostics,
		IR:          rec.IRDump,
	}).WriteResponse(w)
}

func (s *Service) handleHistoryList(w http.ResponseWriter, req *http.Request) {
	key, _ := authedKey(req)

	recs, err := s.db.History().GetAll(req.Context(), key.ID)
	if err != nil {
		InternalServerError(err.Error()).WriteResponse(w)
		return
	}

	out := make([]compileResponse, len(recs))
	for i, rec := range recs {
		out[i] = compileResponse{ID: rec.ID.String(), Success: rec.Success, Summary: rec.Summary}
	}
	OK(out).WriteResponse(w)
}

func (s *Service) handleHistoryGet(w http.ResponseWriter, req *http.Request) {
	key, _ := authedKey(req)

	id, err := uuid.Parse(chi.URLParam(req, "id"))
	if err != nil {
		BadRequest("id must be a UUID").WriteResponse(w)
		return
	}

	rec, err := s.db.History().GetByID(req.Context(), id)
	if err != nil {
		if err == dao.ErrNotFound {
			NotFound().WriteResponse(w)
			return
		}
		InternalServerError(err.Error()).WriteResponse(w)
		return
	}
	if rec.KeyID != key.ID {
		NotFound().WriteResponse(w)
		return
	}

	OK(compileResponse{
		ID:          rec.ID.String(),
		Success:     rec.Success,
		Summary:     rec.Summary,
		Diagnostics: rec.Diagnostics,
		IR:          rec.IRDump,
	}).WriteResponse(w)
}

// RenderModule produces a human-readable dump of a lowered module, the
// same textual form every ir.Instr/ir.Terminator already knows how to
// render itself, just walked over every function and block. Used both
// to persist a compile's IR dump in the history store and to print it
// from the command-line driver.
func RenderModule(mod *ir.Module) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "module %s\n", mod.Name)
	for _, g := range mod.Globals {
		fmt.Fprintf(&sb, "  global %s = %q\n", g.Name, g.Bytes)
	}
	for _, fn := range mod.Functions {
		fmt.Fprintf(&sb, "fn %s\n", fn.Name)
		for _, blk := range fn.Blocks {
			fmt.Fprintf(&sb, "%s:\n", blk.Name)
			for _, instr := range blk.Instrs {
				fmt.Fprintf(&sb, "  %s\n", instr.String())
			}
			if blk.Term != nil {
				fmt.Fprintf(&sb, "  %s\n", blk.Term.String())
			}
		}
	}
	return sb.String()
}
