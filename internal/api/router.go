package api

import (
	"net/http"

	"holdem-service/internal/middleware"
	"holdem-service/internal/service"
	"holdem-service/internal/ws"
	appErr "holdem-service/pkg/errors"
	"holdem-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Game)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/holdem/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", handler.Register)
			authGroup.POST("/login", handler.Login)
		}
		authGroup.POST("/logout", middleware.AuthRequired(), handler.Logout)

		userGroup := v1.Group("/user")
		userGroup.Use(middleware.AuthRequired())
		{
			userGroup.GET("/data", handler.ClientData)
			userGroup.POST("/reward", handler.ClaimReward)
		}

		tableGroup := v1.Group("/tables")
		{
			tableGroup.GET("", handler.ListTables)
			tableGroup.POST("", middleware.AuthRequired(), handler.CreateTable)
		}
	}

	r.GET("/ws/table/:name", wsHandler.HandleTableWS)
}

type credentialsBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type createTableBody struct {
	Name       string `json:"name" binding:"required"`
	SmallBlind int64  `json:"smallBlind" binding:"required,min=1"`
	MaxPlayers int    `json:"maxPlayers" binding:"required,min=2,max=10"`
	Ranked     bool   `json:"ranked"`
}

func (h *Handler) Register(c *gin.Context) {
	var body credentialsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.services.Auth.Register(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case appErr.ErrUsernameTaken:
			status = http.StatusConflict
		case appErr.ErrInvalidCredentials:
			status = http.StatusBadRequest
		}
		response.Error(c, status, err.Error())
		return
	}

	response.SuccessWithMsg(c, gin.H{"username": user.Username}, "registered")
}

func (h *Handler) Login(c *gin.Context) {
	var body credentialsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	token, user, err := h.services.Auth.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case appErr.ErrInvalidCredentials:
			status = http.StatusUnauthorized
		case appErr.ErrUserBanned:
			status = http.StatusForbidden
		case appErr.ErrAlreadyLoggedIn:
			status = http.StatusConflict
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, gin.H{
		"token":     token,
		"username":  user.Username,
		"chipCount": user.ChipCount,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	username := c.GetString(middleware.ContextUsernameKey)
	if err := h.services.Auth.Logout(c.Request.Context(), username); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.SuccessWithMsg(c, gin.H{}, "logged out")
}

func (h *Handler) ClientData(c *gin.Context) {
	username := c.GetString(middleware.ContextUsernameKey)

	data, err := h.services.User.ClientData(c.Request.Context(), username, h.services.Rating)
	if err != nil {
		status := http.StatusInternalServerError
		if err == appErr.ErrUserNotFound {
			status = http.StatusNotFound
		}
		response.Error(c, status, err.Error())
		return
	}

	response.Success(c, data)
}

func (h *Handler) ClaimReward(c *gin.Context) {
	username := c.GetString(middleware.ContextUsernameKey)

	chips, remaining, err := h.services.User.ClaimReward(c.Request.Context(), username)
	if err != nil {
		if err == appErr.ErrRewardNotActive {
			response.JSON(c, http.StatusTooEarly, gin.H{"secondsRemaining": int(remaining.Seconds())}, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	response.Success(c, gin.H{"chips": chips})
}

func (h *Handler) ListTables(c *gin.Context) {
	response.Success(c, gin.H{"tables": h.services.Game.ListTables()})
}

func (h *Handler) CreateTable(c *gin.Context) {
	var body createTableBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.services.Game.CreateTable(body.Name, body.SmallBlind, body.MaxPlayers, body.Ranked); err != nil {
		status := http.StatusBadRequest
		if err == appErr.ErrTitleTaken {
			status = http.StatusConflict
		}
		response.Error(c, status, err.Error())
		return
	}

	response.SuccessWithMsg(c, gin.H{"name": body.Name}, "table created")
}
