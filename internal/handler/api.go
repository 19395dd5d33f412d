package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/vigenere-go/internal/cache"
	"github.com/vigenere-go/internal/dao"
	"github.com/vigenere-go/internal/encryption"
	apperrors "github.com/vigenere-go/internal/errors"
	"github.com/vigenere-go/internal/trace"
)

const (
	defaultRunLimit = 20

	cipherCacheSize = 128
	cipherCacheTTL  = 10 * time.Minute
)

type transformRequest struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// APIHandler handles /api/* routes
type APIHandler struct {
	alphabet *encryption.Alphabet
	runDAO   *dao.RunDAO
	ciphers  *cache.Cache[*encryption.Vigenere]
}

// NewAPIHandler creates a new API handler. runDAO may be nil when the
// journal is disabled.
func NewAPIHandler(alphabet *encryption.Alphabet, runDAO *dao.RunDAO) *APIHandler {
	return &APIHandler{
		alphabet: alphabet,
		runDAO:   runDAO,
		ciphers:  cache.New[*encryption.Vigenere](cipherCacheTTL, cipherCacheSize),
	}
}

// Encrypt handles POST /api/encrypt
func (h *APIHandler) Encrypt(c *gin.Context) {
	h.transform(c, encryption.ModeEncrypt)
}

// Decrypt handles POST /api/decrypt
func (h *APIHandler) Decrypt(c *gin.Context) {
	h.transform(c, encryption.ModeDecrypt)
}

func (h *APIHandler) transform(c *gin.Context, mode encryption.Mode) {
	var req transformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperrors.NewInvalidArgument("invalid request body: "+err.Error()))
		return
	}

	// keys are validated once, then reused until they age out
	cipher, err := h.ciphers.GetOrLoad(req.Key, func() (*encryption.Vigenere, error) {
		return encryption.NewVigenereWithAlphabet(h.alphabet, req.Key)
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	out, err := cipher.TransformString(mode, req.Text)
	if err != nil {
		RespondError(c, err)
		return
	}

	log.Debug().
		Str("request_id", trace.GetRequestID(c.Request.Context())).
		Str("action", mode.String()).
		Str("key_fp", cipher.Fingerprint()).
		Int("chars", len(req.Text)).
		Msg("Text transformed")

	RespondSuccess(c, gin.H{"text": out})
}

// ListRuns handles GET /api/runs
func (h *APIHandler) ListRuns(c *gin.Context) {
	if h.runDAO == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, APIResponse{Code: http.StatusNotFound, Msg: "run journal is disabled"})
		return
	}

	limit := defaultRunLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondError(c, apperrors.NewInvalidArgument("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	runs, err := h.runDAO.List(limit)
	if err != nil {
		RespondError(c, apperrors.NewInternalWithCause("failed to list runs", err))
		return
	}
	RespondSuccess(c, runs)
}

// RunFailures handles GET /api/runs/:id/failures
func (h *APIHandler) RunFailures(c *gin.Context) {
	if h.runDAO == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, APIResponse{Code: http.StatusNotFound, Msg: "run journal is disabled"})
		return
	}

	failures, err := h.runDAO.Failures(c.Param("id"))
	if err != nil {
		RespondError(c, apperrors.NewInternalWithCause("failed to read failures", err))
		return
	}
	RespondSuccess(c, failures)
}
