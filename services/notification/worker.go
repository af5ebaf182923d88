package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"rentdesk-billing/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Worker consumes notification tasks and delivers mail.
type Worker struct {
	service *Service
	mailer  Mailer
}

type WorkerParams struct {
	fx.In
	Service *Service
	Mailer  Mailer
}

func NewWorker(p WorkerParams) *Worker {
	return &Worker{
		service: p.Service,
		mailer:  p.Mailer,
	}
}

func RegisterHandlers(mux *asynq.ServeMux, w *Worker) {
	mux.HandleFunc(taskname.NotificationSubscriptionSuccess, w.HandleSubscriptionSuccess)
}

func (w *Worker) HandleSubscriptionSuccess(ctx context.Context, t *asynq.Task) error {
	var payload SubscriptionPaidPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	mail, err := w.service.RenderPaymentMail(ctx, payload.OwnerUserID, payload.Vars)
	if err != nil {
		return fmt.Errorf("failed to render mail: %w", err)
	}

	if err := w.mailer.Send(payload.Email, mail.Subject, mail.Body); err != nil {
		zap.L().Error("failed to send subscription mail",
			zap.String("email", payload.Email),
			zap.Error(err))
		return err
	}

	zap.L().Info("subscription mail sent", zap.String("email", payload.Email))
	return nil
}
