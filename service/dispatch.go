package service

import (
	"context"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/http/httpcli"
	"push-gate-service/domain"
)

const (
	dispatchChunkSize = 10

	defaultNotificationTitle = "Notification"
)

type DeliveryRepo interface {
	Send(
		ctx context.Context,
		projectId string,
		bearerToken string,
		token string,
		title string,
		body string,
		data map[string]string,
	) error
}

// Dispatch fans a notification out to device tokens. Tokens are processed
// in chunks of dispatchChunkSize to bound concurrency against the delivery
// API; sends within a chunk run in parallel and are joined before the next
// chunk starts. Every token is attempted exactly once and contributes
// exactly one result, no failure aborts the batch.
type Dispatch struct {
	repo DeliveryRepo
}

func NewDispatch(repo DeliveryRepo) Dispatch {
	return Dispatch{
		repo: repo,
	}
}

func (s Dispatch) Send(
	ctx context.Context,
	projectId string,
	bearerToken string,
	tokens []string,
	title string,
	body string,
	data map[string]string,
) *domain.SendOutcome {
	if title == "" {
		title = defaultNotificationTitle
	}

	outcome := domain.NewSendOutcome()
	lock := sync.Mutex{}
	for start := 0; start < len(tokens); start += dispatchChunkSize {
		chunk := tokens[start:min(start+dispatchChunkSize, len(tokens))]

		wg := sync.WaitGroup{}
		for _, token := range chunk {
			wg.Add(1)
			go func() {
				defer wg.Done()

				err := s.repo.Send(ctx, projectId, bearerToken, token, title, body, data)

				lock.Lock()
				defer lock.Unlock()
				if err != nil {
					status, detail := classifySendError(err)
					outcome.AddFailure(token, status, detail)
					return
				}
				outcome.AddSuccess()
			}()
		}
		wg.Wait()
	}

	return outcome
}

// classifySendError maps a per-token failure to the outcome's status and
// detail: the upstream status and raw body for a rejected send, status 0
// for a transport-level failure.
func classifySendError(err error) (int, string) {
	errResp := httpcli.ErrorResponse{}
	if errors.As(err, &errResp) {
		detail := string(errResp.Body)
		if detail == "" {
			detail = http.StatusText(errResp.StatusCode)
		}
		return errResp.StatusCode, detail
	}
	return 0, err.Error()
}
