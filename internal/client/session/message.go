package session

import (
	"context"
	"errors"

	"github.com/atinyakov/FloraFacts/internal/capture"
	"github.com/atinyakov/FloraFacts/internal/client/api"
	"github.com/atinyakov/FloraFacts/internal/identify"
)

// UserMessage turns err into text fit to show the user.
func UserMessage(err error) string {
	var se *api.StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNothingToSave):
		return "Identify a plant first, then save it to your gallery."
	case errors.Is(err, api.ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, capture.ErrStreamNotReady):
		return "Video stream not ready. Please try again."
	case errors.Is(err, capture.ErrCameraUnavailable):
		return "Unable to access camera. Please check permissions."
	case errors.Is(err, capture.ErrNotImage):
		return "Please choose an image file."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, ErrIdentification):
		return identify.Message(err)
	case errors.As(err, &se) && se.Message != "":
		return se.Message
	}
	return "Something went wrong. Please try again."
}
