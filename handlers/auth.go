package handlers

import (
	"net/http"
	"time"

	"innkeep/config"
	"innkeep/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const serviceTokenTTL = 1 * time.Hour

// ServiceAuthHandler issues short-lived service tokens to trusted backend
// callers that present the shared client credentials.
type ServiceAuthHandler struct {
	Logger *zap.Logger
}

func NewServiceAuthHandler(logger *zap.Logger) *ServiceAuthHandler {
	return &ServiceAuthHandler{Logger: logger}
}

type serviceTokenRequest struct {
	ClientID     string `json:"clientId" binding:"required"`
	ClientSecret string `json:"clientSecret" binding:"required"`
}

// IssueServiceTokenHandler handles POST /api/auth/service-token. The secret
// is compared against a bcrypt hash from config, never stored in the clear.
func (h *ServiceAuthHandler) IssueServiceTokenHandler(c *gin.Context) {
	var req serviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	cfg := config.AppConfig
	if cfg.ServiceClientID == "" || cfg.ServiceClientSecretHash == "" {
		h.Logger.Error("service client credentials not configured")
		utils.JSONError(c, http.StatusInternalServerError, "server misconfigured", "")
		return
	}

	if req.ClientID != cfg.ServiceClientID ||
		bcrypt.CompareHashAndPassword([]byte(cfg.ServiceClientSecretHash), []byte(req.ClientSecret)) != nil {
		h.Logger.Warn("service token exchange rejected", zap.String("clientId", req.ClientID))
		utils.JSONError(c, http.StatusUnauthorized, "invalid client credentials", "")
		return
	}

	token, err := utils.GenerateServiceToken(req.ClientID, utils.ScopePaymentsWrite, serviceTokenTTL)
	if err != nil {
		h.Logger.Error("failed to sign service token", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to issue token", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"tokenType": "Bearer",
		"expiresIn": int(serviceTokenTTL.Seconds()),
	})
}
