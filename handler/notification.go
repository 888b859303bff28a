package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/json"
	"push-gate-service/conf"
	"push-gate-service/domain"
	"push-gate-service/httperrors"
	"push-gate-service/request"
)

type CredentialsService interface {
	Mint(ctx context.Context, serviceAccountEmail string, privateKeyPem string) (string, error)
}

type DispatchService interface {
	Send(
		ctx context.Context,
		projectId string,
		bearerToken string,
		tokens []string,
		title string,
		body string,
		data map[string]string,
	) *domain.SendOutcome
}

type Notification struct {
	credentials CredentialsService
	dispatch    DispatchService
	delivery    conf.Delivery
}

func NewNotification(credentials CredentialsService, dispatch DispatchService, delivery conf.Delivery) Notification {
	return Notification{
		credentials: credentials,
		dispatch:    dispatch,
		delivery:    delivery,
	}
}

type notificationContent struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type sendNotificationRequest struct {
	Tokens       []string            `json:"tokens"`
	Notification notificationContent `json:"notification"`
	Data         map[string]any      `json:"data"`
}

func (h Notification) Handle(ctx *request.Context) error {
	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return httperrors.New(
			http.StatusBadRequest,
			"failed to read request body",
			errors.WithMessage(err, "notification: read body"),
		)
	}
	req := sendNotificationRequest{}
	err = json.Unmarshal(body, &req)
	if err != nil {
		return httperrors.New(
			http.StatusBadRequest,
			"request body is not valid JSON",
			errors.WithMessage(err, "notification: unmarshal body"),
		)
	}

	tokens := normalizeTokens(req.Tokens)
	if len(tokens) == 0 {
		return httperrors.New(
			http.StatusBadRequest,
			"Missing recipients (tokens)",
			errors.New("notification: empty token list after filtering"),
		)
	}

	// configuration is checked before any outbound call is made
	if h.delivery.ProjectId == "" || h.delivery.ServiceAccountEmail == "" || h.delivery.PrivateKeyPem == "" {
		return httperrors.New(
			http.StatusInternalServerError,
			"push delivery is not configured",
			errors.New("notification: delivery project id, service account email and private key are required"),
		)
	}

	bearerToken, err := h.credentials.Mint(ctx.Context(), h.delivery.ServiceAccountEmail, h.delivery.PrivateKeyPem)
	if err != nil {
		return httperrors.New(
			http.StatusInternalServerError,
			"failed to obtain delivery credentials",
			errors.WithMessage(err, "notification: mint credentials"),
		).WithDetail(err.Error())
	}

	outcome := h.dispatch.Send(
		ctx.Context(),
		h.delivery.ProjectId,
		bearerToken,
		tokens,
		req.Notification.Title,
		req.Notification.Body,
		stringifyData(req.Data),
	)

	status := http.StatusOK
	if outcome.Failure > 0 {
		status = http.StatusMultiStatus
	}
	return writeJson(ctx.ResponseWriter(), status, outcome)
}

// normalizeTokens drops empty entries and duplicates, preserving order.
func normalizeTokens(tokens []string) []string {
	result := make([]string, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		result = append(result, token)
	}
	return result
}

// stringifyData coerces payload values to strings and drops nulls,
// the delivery API rejects anything else.
func stringifyData(data map[string]any) map[string]string {
	if len(data) == 0 {
		return nil
	}
	result := make(map[string]string, len(data))
	for key, value := range data {
		switch typed := value.(type) {
		case nil:
			continue
		case string:
			result[key] = typed
		default:
			result[key] = fmt.Sprint(typed)
		}
	}
	return result
}

func writeJson(w http.ResponseWriter, statusCode int, value any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		return errors.WithMessage(err, "notification: encode response")
	}
	return nil
}
