package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bookshelf/internal/domain"
)

const (
	locationBody  = "body"
	locationQuery = "query"
)

// errorItem follows the {value,msg,param,location} shape clients already parse.
type errorItem struct {
	Value    any    `json:"value,omitempty"`
	Msg      string `json:"msg"`
	Param    string `json:"param,omitempty"`
	Location string `json:"location,omitempty"`
}

type errorsResponse struct {
	Errors []errorItem `json:"errors"`
}

func errorsBody(msg string) errorsResponse {
	return errorsResponse{Errors: []errorItem{{Msg: msg}}}
}

func validationBody(verr *domain.ValidationError, location string) errorsResponse {
	items := make([]errorItem, len(verr.Fields))
	for i, f := range verr.Fields {
		items[i] = errorItem{
			Value:    f.Value,
			Msg:      f.Msg,
			Param:    f.Param,
			Location: location,
		}
	}
	return errorsResponse{Errors: items}
}

// respondError writes exactly one terminal response for err.
func (h *Handler) respondError(c *gin.Context, err error, location string) {
	if verr, ok := domain.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, validationBody(verr, location))
		return
	}

	switch {
	case errors.Is(err, domain.ErrAlreadyRegistered):
		c.JSON(http.StatusBadRequest, errorsBody("User already registered"))
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, errorsBody("Invalid credentials"))
	case errors.Is(err, domain.ErrDuplicateKey):
		c.JSON(http.StatusConflict, errorsBody("Record already exists"))
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorsBody("Not found"))
	default:
		h.logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"path":       c.Request.URL.Path,
		}).Error("internal error")
		c.String(http.StatusInternalServerError, "server error")
	}
}

func (h *Handler) respondBadBody(c *gin.Context, err error) {
	h.logger.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Debug("malformed request body")
	c.JSON(http.StatusBadRequest, errorsBody("invalid request body"))
}
