package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ops/services"
	"github.com/yeremiapane/restaurant-ops/utils"
)

type UserController struct {
	users *services.UserService
	view  presenter
	log   *logrus.Logger
}

func NewUserController(users *services.UserService, clock *utils.Clock, log *logrus.Logger) *UserController {
	return &UserController{users: users, view: presenter{clock: clock}, log: log}
}

// Register user baru, admin only
func (uc *UserController) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required,max=255"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role" binding:"required,oneof=admin staff chef cashier"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := uc.users.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	uc.log.WithFields(logrus.Fields{"email": user.Email, "role": user.Role}).Info("New user registered")
	utils.RespondJSON(c, http.StatusCreated, "User registered", uc.view.user(user))
}

// Login user -> return JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	token, user, err := uc.users.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Login success", gin.H{
		"token": token,
		"user":  uc.view.user(user),
	})
}

func (uc *UserController) GetAllUsers(c *gin.Context) {
	list, err := uc.users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]UserResponse, 0, len(list))
	for i := range list {
		out = append(out, uc.view.user(&list[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "List of users", out)
}
