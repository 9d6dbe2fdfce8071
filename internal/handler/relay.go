package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"cot-udp-proxy/internal/client"
	"cot-udp-proxy/internal/model"
	"cot-udp-proxy/internal/service"
)

// Client-facing error messages.
const (
	msgHostNotAllowed = "UDP destination not allowed. Configure ALLOWED_UDP_HOSTS environment variable."
	msgInvalidPort    = "Invalid UDP port number"
	msgNotFound       = "Not found"
)

type relayResponse struct {
	Success     bool   `json:"success"`
	Destination string `json:"destination"`
	Size        int    `json:"size"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// RelayHandler turns POST bodies into UDP datagrams.
type RelayHandler struct {
	service *service.RelayService
}

// NewRelayHandler creates a RelayHandler.
func NewRelayHandler(svc *service.RelayService) *RelayHandler {
	return &RelayHandler{service: svc}
}

// Handle relays the request body to the destination named by the
// X-UDP-Host and X-UDP-Port headers and reports what was sent.
func (h *RelayHandler) Handle(c echo.Context) error {
	req := c.Request()

	rr := &model.RelayRequest{
		Ctx:    req.Context(),
		Header: req.Header,
		Body:   req.Body,
	}

	res, err := h.service.Relay(rr)
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(http.StatusOK, relayResponse{
		Success:     true,
		Destination: res.Destination,
		Size:        res.Size,
	})
}

func mapError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrHostNotAllowed) {
		return jsonError(c, http.StatusForbidden, msgHostNotAllowed)
	}

	if errors.Is(err, service.ErrInvalidPort) {
		return jsonError(c, http.StatusBadRequest, msgInvalidPort)
	}

	var bre *service.BodyReadError
	if errors.As(err, &bre) {
		// The body limit middleware aborts reads with its own status.
		var he *echo.HTTPError
		if errors.As(bre.Err, &he) {
			return jsonError(c, he.Code, fmt.Sprint(he.Message))
		}
		return jsonError(c, http.StatusInternalServerError, "Error reading body: "+bre.Err.Error())
	}

	var se *client.SendError
	if errors.As(err, &se) {
		if se.Op == client.OpSocket {
			return jsonError(c, http.StatusInternalServerError, "Error creating UDP socket: "+se.Err.Error())
		}
		return jsonError(c, http.StatusInternalServerError, "UDP send error: "+se.Err.Error())
	}

	return jsonError(c, http.StatusInternalServerError, err.Error())
}

func jsonError(c echo.Context, code int, msg string) error {
	return c.JSON(code, errorResponse{Success: false, Error: msg})
}
