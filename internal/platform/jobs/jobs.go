package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/esaha/esaha/internal/platform/mail"
)

// Task types handled by the worker.
const (
	TypeAppointmentConfirm = "appointment:confirm"
	TypeAppointmentRemind  = "appointment:remind"
	TypeEmergencyAlert     = "emergency:alert"
)

// AppointmentMailPayload carries everything the mail tasks need so the
// worker does not read the database.
type AppointmentMailPayload struct {
	AppointmentID  string `json:"appointment_id"`
	UserEmail      string `json:"user_email"`
	UserName       string `json:"user_name"`
	SpecialistName string `json:"specialist_name"`
	Title          string `json:"title"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	Type           string `json:"type"`
}

// EmergencyAlertPayload is one alert email to one emergency contact.
type EmergencyAlertPayload struct {
	ContactEmail string `json:"contact_email"`
	ContactName  string `json:"contact_name"`
	UserName     string `json:"user_name"`
	Message      string `json:"message"`
}

// Enqueuer schedules background tasks. A nil Enqueuer drops silently so the
// HTTP path never depends on Redis being up.
type Enqueuer struct {
	client *asynq.Client
	logger zerolog.Logger
}

func NewEnqueuer(redisURL string, logger zerolog.Logger) (*Enqueuer, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Enqueuer{client: asynq.NewClient(opt), logger: logger}, nil
}

func (e *Enqueuer) Close() error {
	if e == nil || e.client == nil {
		return nil
	}
	return e.client.Close()
}

// EnqueueConfirmation queues an immediate booking confirmation email.
func (e *Enqueuer) EnqueueConfirmation(ctx context.Context, p AppointmentMailPayload) error {
	return e.enqueue(ctx, TypeAppointmentConfirm, p, asynq.MaxRetry(5))
}

// EnqueueReminder queues a reminder email to be processed at the given time.
// Reminders already in the past are dropped.
func (e *Enqueuer) EnqueueReminder(ctx context.Context, p AppointmentMailPayload, at time.Time) error {
	if at.Before(time.Now()) {
		return nil
	}
	return e.enqueue(ctx, TypeAppointmentRemind, p,
		asynq.ProcessAt(at),
		asynq.MaxRetry(3),
		asynq.TaskID("remind:"+p.AppointmentID),
	)
}

// EnqueueEmergencyAlert queues an alert email in the critical queue.
func (e *Enqueuer) EnqueueEmergencyAlert(ctx context.Context, p EmergencyAlertPayload) error {
	return e.enqueue(ctx, TypeEmergencyAlert, p,
		asynq.Queue("critical"),
		asynq.MaxRetry(10),
	)
}

// ReminderManager removes scheduled reminder tasks when the appointment
// they belong to is cancelled or rescheduled. A nil manager is a no-op.
type ReminderManager struct {
	inspector *asynq.Inspector
	logger    zerolog.Logger
}

func NewReminderManager(redisURL string, logger zerolog.Logger) (*ReminderManager, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &ReminderManager{inspector: asynq.NewInspector(opt), logger: logger}, nil
}

// CancelScheduledReminder deletes the reminder task for an appointment.
// Missing tasks are not an error.
func (m *ReminderManager) CancelScheduledReminder(appointmentID string) {
	if m == nil || m.inspector == nil {
		return
	}
	if err := m.inspector.DeleteTask("default", "remind:"+appointmentID); err != nil {
		m.logger.Debug().Err(err).Str("appointment_id", appointmentID).Msg("no reminder to cancel")
	}
}

func (e *Enqueuer) enqueue(ctx context.Context, typ string, payload any, opts ...asynq.Option) error {
	if e == nil || e.client == nil {
		return nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	info, err := e.client.EnqueueContext(ctx, asynq.NewTask(typ, b), opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", typ, err)
	}
	e.logger.Debug().Str("type", typ).Str("task_id", info.ID).Str("queue", info.Queue).Msg("task enqueued")
	return nil
}

// Worker consumes the task queues and sends mail.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewWorker(redisURL string, mailer mail.Mailer, logger zerolog.Logger) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
			"low":      1,
		},
	})

	h := &handlers{mailer: mailer, logger: logger}
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAppointmentConfirm, h.handleConfirm)
	mux.HandleFunc(TypeAppointmentRemind, h.handleRemind)
	mux.HandleFunc(TypeEmergencyAlert, h.handleAlert)

	return &Worker{server: server, mux: mux}, nil
}

func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

type handlers struct {
	mailer mail.Mailer
	logger zerolog.Logger
}

func (h *handlers) handleConfirm(_ context.Context, t *asynq.Task) error {
	var p AppointmentMailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal confirm payload: %w", err)
	}

	subject := "Appointment Confirmed: " + p.Title
	body := fmt.Sprintf(
		"Hi %s,\n\nYour %s session with %s is confirmed for %s from %s to %s.\n\nIf you need to reschedule, please do so at least 24 hours in advance.\n",
		p.UserName, p.Type, p.SpecialistName, p.Date, p.StartTime, p.EndTime)

	if err := h.mailer.Send(p.UserEmail, subject, body); err != nil {
		return err
	}
	h.logger.Info().Str("appointment_id", p.AppointmentID).Msg("confirmation sent")
	return nil
}

func (h *handlers) handleRemind(_ context.Context, t *asynq.Task) error {
	var p AppointmentMailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal remind payload: %w", err)
	}

	subject := "Appointment Reminder"
	body := fmt.Sprintf(
		"Hi %s,\n\nThis is a reminder that your session with %s starts at %s on %s.\n",
		p.UserName, p.SpecialistName, p.StartTime, p.Date)

	if err := h.mailer.Send(p.UserEmail, subject, body); err != nil {
		return err
	}
	h.logger.Info().Str("appointment_id", p.AppointmentID).Msg("reminder sent")
	return nil
}

func (h *handlers) handleAlert(_ context.Context, t *asynq.Task) error {
	var p EmergencyAlertPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal alert payload: %w", err)
	}

	subject := fmt.Sprintf("Urgent: %s needs support", p.UserName)
	body := fmt.Sprintf(
		"Hi %s,\n\n%s has asked us to reach out to you.\n\n%s\n\nPlease check in with them as soon as you can.\n",
		p.ContactName, p.UserName, p.Message)

	if err := h.mailer.Send(p.ContactEmail, subject, body); err != nil {
		return err
	}
	h.logger.Info().Str("contact", p.ContactEmail).Msg("emergency alert sent")
	return nil
}
