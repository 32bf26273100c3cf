package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sagarc03/volstore"
)

// AgentPrefix is the path below which the storage agent endpoints are
// served. Volume connection URLs point at it.
const AgentPrefix = "/agent_api"

// Service is the volume logic the handler delegates to.
type Service interface {
	CreateVolume(ctx context.Context, v volstore.Volume) (volstore.Volume, error)
	GetVolume(ctx context.Context, id string) (volstore.Volume, error)
	FindVolume(ctx context.Context, ownerKey, name string) (volstore.Volume, error)
	SearchVolumes(ctx context.Context, q volstore.VolumeQuery) (volstore.VolumePage, error)
	Mkdir(ctx context.Context, volumeID string, p volstore.RelativePath) (volstore.Entry, error)
	WriteFile(ctx context.Context, volumeID string, p volstore.RelativePath, content io.Reader) (volstore.Entry, error)
	List(ctx context.Context, volumeID string, p volstore.RelativePath) ([]volstore.Entry, error)
	Open(ctx context.Context, volumeID string, p volstore.RelativePath) (io.ReadSeekCloser, volstore.Entry, error)
}

// CredentialVerifier checks a username and password.
type CredentialVerifier interface {
	Verify(username, password string) error
}

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	TokenVerifier
	Issue(username string) (string, error)
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	Users   CredentialVerifier
	Tokens  TokenService
	Metrics *Metrics
	CORS    CORSConfig
	// PublicURL is the externally visible base URL. Empty derives it from
	// the request host.
	PublicURL string
	// ExistingDirStatus answers a request for a directory that already
	// exists. Defaults to 409 Conflict; 202 Accepted is the alternative.
	ExistingDirStatus int
	// MaxUploadSize limits file bodies in bytes. Zero means no limit.
	MaxUploadSize int64
}

// Handler serves the authentication, master and agent endpoints.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	if cfg.ExistingDirStatus == 0 {
		cfg.ExistingDirStatus = http.StatusConflict
	}
	return &Handler{
		config:  cfg,
		service: service,
	}
}

// Router returns an http.Handler with all routes configured.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}
	if h.config.Metrics != nil {
		r.Use(h.config.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", h.config.Metrics.Handler())
	}

	r.Post("/authenticate", h.handleAuthenticate)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.config.Tokens))

		r.Post("/storage", h.handleCreateVolume)
		r.Get("/storage", h.handleSearchVolumes)
		r.Get("/storage/{id}", h.handleGetVolume)
		r.Get("/storage/{owner}/{name}", h.handleFindVolume)

		r.Route(AgentPrefix+"/agent_storage/{volumeID}", func(r chi.Router) {
			r.Post("/directory/*", h.handleMkdir)
			r.Post("/file/*", h.handleWriteFile)
			r.Get("/list", h.handleList)
			r.Get("/entry_content/*", h.handleContent)
		})
	})

	return r
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (h *Handler) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var creds credentialsRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_input", "Malformed JSON body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_input", "Malformed form body")
			return
		}
		creds.Username = r.PostForm.Get("username")
		creds.Password = r.PostForm.Get("password")
	}

	if err := h.config.Users.Verify(creds.Username, creds.Password); err != nil {
		HandleError(w, err)
		return
	}

	token, err := h.config.Tokens.Issue(creds.Username)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, tokenResponse{Token: token, Username: creds.Username})
}

type createVolumeRequest struct {
	OwnerKey      string                 `json:"ownerKey"`
	Name          string                 `json:"name"`
	StorageFormat volstore.StorageFormat `json:"storageFormat"`
	StorageTags   []string               `json:"storageTags"`
	Metadata      map[string]string      `json:"metadata"`
}

type volumeResponse struct {
	ID            string                 `json:"id"`
	ConnectionURL string                 `json:"connectionURL"`
	OwnerKey      string                 `json:"ownerKey"`
	Name          string                 `json:"name"`
	StorageFormat volstore.StorageFormat `json:"storageFormat"`
	StorageTags   []string               `json:"storageTags"`
	Metadata      map[string]string      `json:"metadata,omitempty"`
	Created       time.Time              `json:"created"`
}

type searchResponse struct {
	ResultList []volumeResponse `json:"resultList"`
	TotalCount int64            `json:"totalCount"`
	PageNumber int              `json:"pageNumber"`
}

func (h *Handler) handleCreateVolume(w http.ResponseWriter, r *http.Request) {
	var req createVolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Malformed JSON body")
		return
	}

	user, _ := UserFromContext(r.Context())
	if req.OwnerKey == "" {
		req.OwnerKey = volstore.OwnerKey(user)
	}
	if req.OwnerKey != volstore.OwnerKey(user) {
		HandleError(w, fmt.Errorf("create volume for %s as %s: %w", req.OwnerKey, user, volstore.ErrForbidden))
		return
	}

	vol, err := h.service.CreateVolume(r.Context(), volstore.Volume{
		OwnerKey: req.OwnerKey,
		Name:     req.Name,
		Format:   req.StorageFormat,
		Tags:     req.StorageTags,
		Metadata: req.Metadata,
	})
	if err != nil {
		HandleError(w, err)
		return
	}

	if h.config.Metrics != nil {
		h.config.Metrics.VolumeCreated()
	}

	_ = WriteJSON(w, http.StatusCreated, h.volumeResponse(r, vol))
}

func (h *Handler) handleGetVolume(w http.ResponseWriter, r *http.Request) {
	vol, err := h.service.GetVolume(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, h.volumeResponse(r, vol))
}

func (h *Handler) handleFindVolume(w http.ResponseWriter, r *http.Request) {
	owner, err := routeParam(r, "owner")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid owner key")
		return
	}
	name, err := routeParam(r, "name")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid volume name")
		return
	}

	vol, err := h.service.FindVolume(r.Context(), owner, name)
	if err != nil {
		HandleError(w, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, h.volumeResponse(r, vol))
}

func (h *Handler) handleSearchVolumes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q := volstore.VolumeQuery{
		ID:       query.Get("id"),
		OwnerKey: query.Get("ownerKey"),
		Name:     query.Get("name"),
		Tag:      query.Get("storageTags"),
	}

	var err error
	if q.Page, err = intParam(query, "page"); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}
	if q.Length, err = intParam(query, "length"); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	page, err := h.service.SearchVolumes(r.Context(), q)
	if err != nil {
		HandleError(w, err)
		return
	}

	resp := searchResponse{
		ResultList: make([]volumeResponse, 0, len(page.Items)),
		TotalCount: page.Total,
		PageNumber: page.Page,
	}
	for _, vol := range page.Items {
		resp.ResultList = append(resp.ResultList, h.volumeResponse(r, vol))
	}
	_ = WriteJSON(w, http.StatusOK, resp)
}

func intParam(query url.Values, key string) (int, error) {
	raw := query.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return n, nil
}

func (h *Handler) handleMkdir(w http.ResponseWriter, r *http.Request) {
	vol, ok := h.ownedVolume(w, r)
	if !ok {
		return
	}
	p, ok := wildcardPath(w, r, false)
	if !ok {
		return
	}

	entry, err := h.service.Mkdir(r.Context(), vol.ID, p)
	if err != nil {
		if errors.Is(err, volstore.ErrExists) && h.config.ExistingDirStatus != http.StatusConflict {
			entry = volstore.Entry{VolumeID: vol.ID, Path: p.String(), Directory: true}
			_ = WriteJSON(w, h.config.ExistingDirStatus, h.entryResponse(r, vol, entry))
			return
		}
		HandleError(w, err)
		return
	}

	entry = h.entryResponse(r, vol, entry)
	w.Header().Set("Location", h.agentURL(r, vol, "list")+"?entry="+url.QueryEscape(p.String()))
	_ = WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleWriteFile(w http.ResponseWriter, r *http.Request) {
	vol, ok := h.ownedVolume(w, r)
	if !ok {
		return
	}
	p, ok := wildcardPath(w, r, false)
	if !ok {
		return
	}

	body := r.Body
	if h.config.MaxUploadSize > 0 {
		body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	entry, err := h.service.WriteFile(r.Context(), vol.ID, p, body)
	if err != nil {
		HandleError(w, err)
		return
	}

	entry = h.entryResponse(r, vol, entry)
	w.Header().Set("Location", entry.AccessURL)
	_ = WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	vol, ok := h.ownedVolume(w, r)
	if !ok {
		return
	}

	p, err := volstore.ParseOptionalPath(r.URL.Query().Get("entry"))
	if err != nil {
		HandleError(w, err)
		return
	}

	entries, err := h.service.List(r.Context(), vol.ID, p)
	if err != nil {
		HandleError(w, err)
		return
	}

	for i := range entries {
		entries[i] = h.entryResponse(r, vol, entries[i])
	}
	_ = WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleContent(w http.ResponseWriter, r *http.Request) {
	vol, ok := h.ownedVolume(w, r)
	if !ok {
		return
	}
	p, ok := wildcardPath(w, r, true)
	if !ok {
		return
	}

	content, entry, err := h.service.Open(r.Context(), vol.ID, p)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	if entry.MimeType != "" {
		w.Header().Set("Content-Type", entry.MimeType)
	}
	http.ServeContent(w, r, entry.Name(), time.Time{}, content)
}

// ownedVolume resolves the volume in the route and checks that it belongs
// to the authenticated user.
func (h *Handler) ownedVolume(w http.ResponseWriter, r *http.Request) (volstore.Volume, bool) {
	id := chi.URLParam(r, "volumeID")

	vol, err := h.service.GetVolume(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return volstore.Volume{}, false
	}

	user, _ := UserFromContext(r.Context())
	if vol.OwnerKey != volstore.OwnerKey(user) {
		HandleError(w, fmt.Errorf("volume %s: %w", id, volstore.ErrForbidden))
		return volstore.Volume{}, false
	}
	return vol, true
}

// routeParam returns a decoded URL parameter. chi matches on RawPath when
// the request has one, and on the already decoded Path otherwise.
func routeParam(r *http.Request, key string) (string, error) {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value, nil
	}
	return url.PathUnescape(value)
}

// wildcardPath parses the path captured by a trailing route wildcard.
func wildcardPath(w http.ResponseWriter, r *http.Request, allowRoot bool) (volstore.RelativePath, bool) {
	raw, err := routeParam(r, "*")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Invalid path encoding")
		return volstore.RelativePath{}, false
	}

	var p volstore.RelativePath
	if allowRoot {
		p, err = volstore.ParseOptionalPath(raw)
	} else {
		p, err = volstore.ParsePath(raw)
	}
	if err != nil {
		HandleError(w, err)
		return volstore.RelativePath{}, false
	}
	return p, true
}

func (h *Handler) baseURL(r *http.Request) string {
	if h.config.PublicURL != "" {
		return strings.TrimRight(h.config.PublicURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (h *Handler) connectionURL(r *http.Request) string {
	return h.baseURL(r) + AgentPrefix
}

func (h *Handler) agentURL(r *http.Request, vol volstore.Volume, action string, segments ...string) string {
	u := h.connectionURL(r) + "/agent_storage/" + url.PathEscape(vol.ID) + "/" + action
	for _, seg := range segments {
		u += "/" + url.PathEscape(seg)
	}
	return u
}

func (h *Handler) volumeResponse(r *http.Request, vol volstore.Volume) volumeResponse {
	tags := vol.Tags
	if tags == nil {
		tags = []string{}
	}
	return volumeResponse{
		ID:            vol.ID,
		ConnectionURL: h.connectionURL(r),
		OwnerKey:      vol.OwnerKey,
		Name:          vol.Name,
		StorageFormat: vol.Format,
		StorageTags:   tags,
		Metadata:      vol.Metadata,
		Created:       vol.CreatedAt,
	}
}

func (h *Handler) entryResponse(r *http.Request, vol volstore.Volume, entry volstore.Entry) volstore.Entry {
	entry.VolumeID = vol.ID
	if !entry.Directory && entry.Path != "" {
		entry.AccessURL = h.agentURL(r, vol, "entry_content", strings.Split(entry.Path, "/")...)
	}
	return entry
}
