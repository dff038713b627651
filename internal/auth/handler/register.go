package handler

import (
	"errors"
	"net/http"

	"handyman-auth/internal/auth/controller"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type emailSignUpRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

func (h *Handler) emailSignUp(c *gin.Context) {
	var req emailSignUpRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.started(c, controller.MethodEmailSignUp, h.controller.EmailSignUp(req.Email, req.Password, req.Name))
}

// bindAndValidate decodes the JSON body into req and checks its validate
// tags. On failure it writes the response and returns false.
func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}

	err := validate.Struct(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldName(fe)] = fieldMessage(fe)
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":  fieldMessage(verrs[0]),
		"fields": fields,
	})
	return false
}

func fieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "ConfirmPassword":
		return "confirm_password"
	case "Name":
		return "name"
	case "Email":
		return "email"
	case "Password":
		return "password"
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fieldName(fe) + " is required"
	case "email":
		return "email address is badly formatted"
	case "min":
		return "password should be at least 6 characters"
	case "eqfield":
		return "passwords do not match"
	}
	return fieldName(fe) + " is invalid"
}
