package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/slotcal/slotcal-api/internal/models"
	"github.com/slotcal/slotcal-api/internal/repository"
	"github.com/slotcal/slotcal-api/internal/service"
)

// Scheduler interface for dependency injection
type Scheduler interface {
	ComputeAvailability(ctx context.Context, username, date string) (*service.Availability, error)
	CreateScheduling(ctx context.Context, username string, input service.CreateSchedulingInput) (*models.Scheduling, error)
}

type Handler struct {
	scheduler Scheduler
}

func NewHandler(scheduler Scheduler) *Handler {
	return &Handler{scheduler: scheduler}
}

// Router builds the gin engine with all routes registered
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "Method not allowed."})
	})

	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	api.GET("/users/:username/availability", h.GetAvailability)
	api.POST("/users/:username/schedulings", h.CreateScheduling)

	return r
}

// HealthCheck reports liveness
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetAvailability handles GET /api/users/:username/availability?date=YYYY-MM-DD
func (h *Handler) GetAvailability(c *gin.Context) {
	username := c.Param("username")
	date := c.Query("date")

	availability, err := h.scheduler.ComputeAvailability(c.Request.Context(), username, date)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"message": "User does not exist."})
		case errors.Is(err, service.ErrMissingDate):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Missing date."})
		case errors.Is(err, service.ErrInvalidDate):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date."})
		case errors.Is(err, service.ErrExternalLookupFailed):
			log.Printf("Availability query failed for %s: %v", username, err)
			c.JSON(http.StatusBadGateway, gin.H{"message": "Could not reach external calendar."})
		default:
			log.Printf("Availability query failed for %s: %v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error."})
		}
		return
	}

	c.JSON(http.StatusOK, availability)
}

type createSchedulingRequest struct {
	Name         string    `json:"name" binding:"required"`
	Email        string    `json:"email" binding:"required,email"`
	Observations *string   `json:"observations"`
	Date         time.Time `json:"date" binding:"required"`
}

type schedulingResponse struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Observations *string   `json:"observations"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CreateScheduling handles POST /api/users/:username/schedulings
func (h *Handler) CreateScheduling(c *gin.Context) {
	username := c.Param("username")

	var req createSchedulingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return
	}

	scheduling, err := h.scheduler.CreateScheduling(c.Request.Context(), username, service.CreateSchedulingInput{
		Name:         req.Name,
		Email:        req.Email,
		Observations: req.Observations,
		Date:         req.Date,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"message": "User does not exist."})
		case errors.Is(err, service.ErrPastDate):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Date is in the past."})
		case errors.Is(err, repository.ErrSlotTaken):
			c.JSON(http.StatusConflict, gin.H{"message": "Slot is already taken."})
		default:
			log.Printf("Scheduling creation failed for %s: %v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error."})
		}
		return
	}

	c.JSON(http.StatusCreated, schedulingResponse{
		ID:           scheduling.ID,
		Date:         scheduling.Date,
		Name:         scheduling.Name,
		Email:        scheduling.Email,
		Observations: scheduling.Observations,
		CreatedAt:    scheduling.CreatedAt,
	})
}
