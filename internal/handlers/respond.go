package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/yukikurage/story-relay-api/internal/errors"
)

// respondUnexpected handles errors no sentinel matched. Deadline and
// cancellation errors mean a downstream call ran out of request time.
func respondUnexpected(c *gin.Context, err error) {
	_ = c.Error(err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		apierrors.ServiceUnavailable(c, "The request timed out, please retry")
		return
	}
	apierrors.InternalError(c, "")
}

// bindingDetails maps validator failures to field -> failed tag.
func bindingDetails(err error) interface{} {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
