package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"civic-complaints/internal/domain"
	"civic-complaints/internal/metrics"
	"civic-complaints/internal/service"
)

// DefaultMaxBodyBytes bounds request bodies, which carry inline base64 evidence.
const DefaultMaxBodyBytes int64 = 50 << 20

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth         service.AuthService
	complaints   service.ComplaintService
	log          logrus.FieldLogger
	basePath     string
	maxBodyBytes int64
}

type Options struct {
	BasePath     string
	MaxBodyBytes int64
	Logger       logrus.FieldLogger
}

func NewHandler(auth service.AuthService, complaints service.ComplaintService, opts Options) *Handler {
	if opts.BasePath == "" {
		opts.BasePath = "/api"
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	registerValidation()
	return &Handler{
		auth:         auth,
		complaints:   complaints,
		log:          opts.Logger,
		basePath:     opts.BasePath,
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), requestLogger(h.log), bodyLimit(h.maxBodyBytes))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Civic Complaint API running"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group(h.basePath)
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)

		complaints := api.Group("/complaints", h.requireToken())
		complaints.GET("", h.listComplaints)
		complaints.POST("", h.submitComplaint)
		complaints.PATCH("/:id/resolve", h.requireAdmin(), h.resolveComplaint)

		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func bodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// requestLogger logs one line per request and feeds the latency histogram.
func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Observe(latency.Seconds())

		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": latency,
			"client":  c.ClientIP(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
	}
}

const identityKey = "identity"

// requireToken rejects requests without a valid bearer token before any body is read.
func (h *Handler) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := h.auth.Verify(bearerToken(c))
		if err != nil {
			h.writeError(c, err)
			c.Abort()
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := c.Get(identityKey)
		if id, isIdentity := identity.(*domain.Identity); !ok || !isIdentity || !id.IsAdmin() {
			h.writeError(c, domain.ErrAdminRequired)
			c.Abort()
			return
		}
		c.Next()
	}
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header,
// or "" when the header is missing or uses another scheme.
func bearerToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type UserResponse struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

type ComplaintResponse struct {
	ID                       int64                  `json:"id"`
	Description              string                 `json:"description"`
	ImageBase64              string                 `json:"image_base64"`
	Latitude                 float64                `json:"latitude"`
	Longitude                float64                `json:"longitude"`
	Category                 domain.Category        `json:"category"`
	Department               domain.Department      `json:"department"`
	Status                   domain.ComplaintStatus `json:"status"`
	CreatedAt                time.Time              `json:"created_at"`
	ResolvedImageBase64      *string                `json:"resolved_image_base64"`
	ResolvedAt               *time.Time             `json:"resolved_at"`
	UserID                   int64                  `json:"user_id"`
	EvidenceLocation         string                 `json:"evidence_location,omitempty"`
	ResolvedEvidenceLocation string                 `json:"resolved_evidence_location,omitempty"`
}

type SubmitResponse struct {
	ID         int64                  `json:"id"`
	Category   domain.Category        `json:"category"`
	Department domain.Department      `json:"department"`
	Status     domain.ComplaintStatus `json:"status"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{ID: user.ID, Username: user.Username, Role: user.Role}
}

func complaintToResponse(c domain.Complaint) ComplaintResponse {
	resp := ComplaintResponse{
		ID:               c.ID,
		Description:      c.Description,
		ImageBase64:      c.ImageBase64,
		Latitude:         c.Location.Latitude,
		Longitude:        c.Location.Longitude,
		Category:         c.Category,
		Department:       c.Department,
		Status:           c.Status,
		CreatedAt:        c.CreatedAt,
		UserID:           c.UserID,
		EvidenceLocation: c.EvidenceLocation,
	}
	if r := c.Resolution; r != nil {
		image := r.ImageBase64
		resolvedAt := r.ResolvedAt
		resp.ResolvedImageBase64 = &image
		resp.ResolvedAt = &resolvedAt
		resp.ResolvedEvidenceLocation = r.EvidenceLocation
	}
	return resp
}
