package notification

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rentdesk-billing/pkg/config"
	"rentdesk-billing/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return nil, nil
}

func newService(t *testing.T) (*Service, *fakeEnqueuer) {
	t.Helper()

	db := testutil.NewTestDB(t, &EmailTemplate{}, &Setting{})
	enqueuer := &fakeEnqueuer{}
	cfg := &config.Config{}
	cfg.AppName = "RentDesk"

	svc := NewService(ServiceParams{DB: db, Config: cfg, Asynq: enqueuer})
	return svc, enqueuer
}

func TestRenderPaymentMailDefault(t *testing.T) {
	svc, _ := newService(t)

	mail, err := svc.RenderPaymentMail(context.Background(), "admin-1", PaymentVars{
		Amount:   "USD 49.00",
		Status:   "paid",
		Duration: "30",
		Gateway:  "stripe",
	})
	require.NoError(t, err)
	require.Equal(t, "Payment Successful!", mail.Subject)
	require.Contains(t, mail.Body, "USD 49.00")
	require.Contains(t, mail.Body, "paid")
	require.Contains(t, mail.Body, "30")
	require.Contains(t, mail.Body, "stripe")
	require.Contains(t, mail.Body, "RentDesk")
	require.NotContains(t, mail.Body, "{{")
}

func TestRenderPaymentMailCustomTemplate(t *testing.T) {
	svc, _ := newService(t)

	require.NoError(t, svc.db.Create(&EmailTemplate{
		ID:          "tpl-1",
		OwnerUserID: "admin-1",
		Category:    CategorySubscriptionSuccess,
		Subject:     "Thanks from {{app_name}}",
		Body:        "You paid {{amount}} via {{gateway}} for {{duration}} days ({{status}}).",
		Status:      Active,
	}).Error)

	mail, err := svc.RenderPaymentMail(context.Background(), "admin-1", PaymentVars{
		Amount:   "EUR 10.00",
		Status:   "paid",
		Duration: "365",
		Gateway:  "paypal",
	})
	require.NoError(t, err)
	require.Equal(t, "Thanks from RentDesk", mail.Subject)
	require.Equal(t, "You paid EUR 10.00 via paypal for 365 days (paid).", mail.Body)
}

func TestRenderPaymentMailIgnoresInactiveTemplate(t *testing.T) {
	svc, _ := newService(t)

	require.NoError(t, svc.db.Create(&EmailTemplate{
		ID:          "tpl-1",
		OwnerUserID: "admin-1",
		Category:    CategorySubscriptionSuccess,
		Subject:     "Custom",
		Body:        "Custom body",
		Status:      Inactive,
	}).Error)

	mail, err := svc.RenderPaymentMail(context.Background(), "admin-1", PaymentVars{})
	require.NoError(t, err)
	require.Equal(t, "Payment Successful!", mail.Subject)
}

func TestOptionFallback(t *testing.T) {
	svc, _ := newService(t)

	v, err := svc.Option(context.Background(), "admin-1", OptionAppName, "Fallback")
	require.NoError(t, err)
	require.Equal(t, "Fallback", v)

	require.NoError(t, svc.db.Create(&Setting{
		ID: "set-1", OwnerUserID: "admin-1", Key: OptionAppName, Value: "MyApp",
	}).Error)

	v, err = svc.Option(context.Background(), "admin-1", OptionAppName, "Fallback")
	require.NoError(t, err)
	require.Equal(t, "MyApp", v)
}

func TestSubscriptionPaidRespectsOptOut(t *testing.T) {
	svc, enqueuer := newService(t)

	svc.SubscriptionPaid(context.Background(), SubscriptionPaidPayload{
		OwnerUserID: "admin-1",
		Email:       "owner@test",
	})
	require.Empty(t, enqueuer.tasks)

	require.NoError(t, svc.db.Create(&Setting{
		ID: "set-1", OwnerUserID: "admin-1", Key: OptionSendEmailStatus, Value: "active",
	}).Error)

	svc.SubscriptionPaid(context.Background(), SubscriptionPaidPayload{
		OwnerUserID: "admin-1",
		Email:       "owner@test",
		Vars:        PaymentVars{Amount: "USD 49.00"},
	})
	require.Len(t, enqueuer.tasks, 1)

	var payload SubscriptionPaidPayload
	require.NoError(t, json.Unmarshal(enqueuer.tasks[0].Payload(), &payload))
	require.Equal(t, "owner@test", payload.Email)
	require.Equal(t, "USD 49.00", payload.Vars.Amount)
}

type captureMailer struct {
	to, subject, body string
}

func (m *captureMailer) Send(to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return nil
}

func TestWorkerHandleSubscriptionSuccess(t *testing.T) {
	svc, _ := newService(t)
	mailer := &captureMailer{}
	w := NewWorker(WorkerParams{Service: svc, Mailer: mailer})

	payload, err := json.Marshal(SubscriptionPaidPayload{
		OwnerUserID: "admin-1",
		Email:       "owner@test",
		Vars:        PaymentVars{Amount: "USD 49.00", Status: "paid", Duration: "30", Gateway: "cash"},
	})
	require.NoError(t, err)

	err = w.HandleSubscriptionSuccess(context.Background(), asynq.NewTask("notification:subscription:success", payload))
	require.NoError(t, err)
	require.Equal(t, "owner@test", mailer.to)
	require.Equal(t, "Payment Successful!", mailer.subject)
	require.Contains(t, mailer.body, "USD 49.00")
}
