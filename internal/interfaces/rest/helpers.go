package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/matchdesk/cms/pkg/auth"
	"github.com/matchdesk/cms/pkg/errors"
)

const fieldMessage = "message"

// GetUserFromContext extracts the authenticated user from gin.Context
func GetUserFromContext(c *gin.Context) *auth.UserSession {
	userInterface, exists := c.Get(auth.ContextKeyUser)
	if !exists {
		return nil
	}
	user, ok := userInterface.(auth.UserSession)
	if !ok {
		return nil
	}
	return &user
}

// actorFromContext returns the acting user id recorded on writes, or nil.
func actorFromContext(c *gin.Context) *string {
	user := GetUserFromContext(c)
	if user == nil || user.ID == "" {
		return nil
	}
	id := user.ID
	return &id
}

// RespondAppError sends a standardised JSON error response using pkg/errors. Server
// errors are attached to the context for the request logger.
func RespondAppError(c *gin.Context, err error) {
	code := errors.GetHTTPStatus(err)
	message := err.Error()

	if code >= 500 {
		_ = c.Error(err)
	}

	c.JSON(code, gin.H{
		"error":      message, // Legacy
		fieldMessage: message, // Standard
		"code":       errors.GetErrorCode(err),
		"data":       nil,
	})
}

// BindJSON binds JSON and returns true if successful. If failed, it sends bad request error.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, errors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// BindJSONStrict binds JSON and enforces strict field validation (no unknown fields).
func BindJSONStrict(c *gin.Context, obj interface{}) bool {
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(obj); err != nil {
		RespondAppError(c, errors.NewValidationError("body", err.Error()))
		return false
	}
	if err := binding.Validator.ValidateStruct(obj); err != nil {
		RespondAppError(c, errors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// HandleGetEnvelope executes a read action and returns the result wrapped in a JSON key
// Response: { [key]: result }
func HandleGetEnvelope(c *gin.Context, key string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: result})
}

// HandleDeleteEnvelope executes a delete action and returns a success message
// Response: { message: successMsg }
func HandleDeleteEnvelope(c *gin.Context, successMsg string, action func() error) {
	if err := action(); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{fieldMessage: successMsg})
}
