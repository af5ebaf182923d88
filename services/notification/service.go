package notification

import (
	"context"
	"encoding/json"
	"strings"

	"rentdesk-billing/pkg/config"
	"rentdesk-billing/pkg/errutil"
	"rentdesk-billing/pkg/repository"
	"rentdesk-billing/pkg/task"
	"rentdesk-billing/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultSubject = "Payment Successful!"
	defaultBody    = "Your payment of {{amount}} via {{gateway}} is {{status}}. " +
		"Your subscription is active for {{duration}} days. Thank you for choosing {{app_name}}."
)

type Service struct {
	db           *gorm.DB
	config       *config.Config
	asynq        task.Enqueuer
	templateRepo repository.Repository[EmailTemplate]
	settingRepo  repository.Repository[Setting]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Config *config.Config
	Asynq  task.Enqueuer
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:           p.DB,
		config:       p.Config,
		asynq:        p.Asynq,
		templateRepo: repository.ProvideStore[EmailTemplate](p.DB),
		settingRepo:  repository.ProvideStore[Setting](p.DB),
	}
}

// Option returns the owner's setting value, or the fallback when unset.
func (s *Service) Option(ctx context.Context, ownerUserID, key, fallback string) (string, error) {
	setting, err := s.settingRepo.FindOne(ctx, &Setting{OwnerUserID: ownerUserID, Key: key})
	if err != nil {
		zap.L().Error("failed query setting", zap.String("key", key), zap.Error(err))
		return "", errutil.Internal("failed to get setting", err)
	}

	if setting == nil || setting.Value == "" {
		return fallback, nil
	}

	return setting.Value, nil
}

// EmailEnabled reports whether the owner opted into payment emails.
func (s *Service) EmailEnabled(ctx context.Context, ownerUserID string) (bool, error) {
	v, err := s.Option(ctx, ownerUserID, OptionSendEmailStatus, string(Inactive))
	if err != nil {
		return false, err
	}
	return v == string(Active), nil
}

// PaymentMail is the rendered message delivered to the payer.
type PaymentMail struct {
	Subject string
	Body    string
}

// PaymentVars feed the template placeholders.
type PaymentVars struct {
	Amount   string
	Status   string
	Duration string
	Gateway  string
}

// RenderPaymentMail substitutes the placeholders into the owner's active
// template, falling back to the built-in message when none exists.
func (s *Service) RenderPaymentMail(ctx context.Context, ownerUserID string, vars PaymentVars) (*PaymentMail, error) {
	subject := defaultSubject
	body := defaultBody

	tpl, err := s.templateRepo.FindOne(ctx, &EmailTemplate{
		OwnerUserID: ownerUserID,
		Category:    CategorySubscriptionSuccess,
		Status:      Active,
	})
	if err != nil {
		zap.L().Error("failed query email template", zap.Error(err))
		return nil, errutil.Internal("failed to get email template", err)
	}

	if tpl != nil {
		subject = tpl.Subject
		body = tpl.Body
	}

	appName, err := s.Option(ctx, ownerUserID, OptionAppName, s.config.AppName)
	if err != nil {
		return nil, err
	}

	r := strings.NewReplacer(
		"{{amount}}", vars.Amount,
		"{{status}}", vars.Status,
		"{{duration}}", vars.Duration,
		"{{gateway}}", vars.Gateway,
		"{{app_name}}", appName,
	)

	return &PaymentMail{
		Subject: r.Replace(subject),
		Body:    r.Replace(body),
	}, nil
}

// SubscriptionPaidPayload is the asynq task payload consumed by the worker.
type SubscriptionPaidPayload struct {
	OwnerUserID string      `json:"owner_user_id"`
	Email       string      `json:"email"`
	Vars        PaymentVars `json:"vars"`
}

// SubscriptionPaid enqueues the confirmation mail when the owner opted in.
// Enqueue failures are logged, never surfaced: the payment already succeeded.
func (s *Service) SubscriptionPaid(ctx context.Context, payload SubscriptionPaidPayload) {
	enabled, err := s.EmailEnabled(ctx, payload.OwnerUserID)
	if err != nil || !enabled {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("failed to marshal notification payload", zap.Error(err))
		return
	}

	if _, err := s.asynq.Enqueue(asynq.NewTask(taskname.NotificationSubscriptionSuccess, data)); err != nil {
		zap.L().Error("failed to enqueue notification task",
			zap.String("task_type", taskname.NotificationSubscriptionSuccess),
			zap.Error(err))
	}
}
