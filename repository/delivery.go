package repository

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/http/httpcli"
)

type Delivery struct {
	cli     *httpcli.Client
	baseUrl string
}

func NewDelivery(cli *httpcli.Client, baseUrl string) Delivery {
	return Delivery{
		cli:     cli,
		baseUrl: baseUrl,
	}
}

type deliveryNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type deliveryMessage struct {
	Token        string               `json:"token"`
	Notification deliveryNotification `json:"notification"`
	Data         map[string]string    `json:"data,omitempty"`
}

type sendMessageRequest struct {
	Message deliveryMessage `json:"message"`
}

// Send delivers one message to one device token. A non-2xx provider
// response is returned as an httpcli.ErrorResponse carrying the status
// and raw body.
func (r Delivery) Send(
	ctx context.Context,
	projectId string,
	bearerToken string,
	token string,
	title string,
	body string,
	data map[string]string,
) error {
	requestUrl := fmt.Sprintf("%s/v1/projects/%s/messages:send", r.baseUrl, projectId)
	_, err := r.cli.Post(requestUrl).
		Header("Authorization", "Bearer "+bearerToken).
		JsonRequestBody(sendMessageRequest{
			Message: deliveryMessage{
				Token: token,
				Notification: deliveryNotification{
					Title: title,
					Body:  body,
				},
				Data: data,
			},
		}).
		StatusCodeToError().
		Do(ctx)
	if err != nil {
		return errors.WithMessagef(err, "post delivery message for token '%s'", token)
	}
	return nil
}
