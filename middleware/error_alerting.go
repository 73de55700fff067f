package middleware

import (
	"context"
	"crypto/md5"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/slack-go/slack"

	"nrgbot/services/periodic"
)

const alertTimeout = 10 * time.Second

type SlackAlertConfig struct {
	WebhookURL  string
	Environment string
	AppName     string
}

// WebhookPoster delivers one webhook message; slack.PostWebhookContext in production
type WebhookPoster func(ctx context.Context, url string, msg *slack.WebhookMessage) error

// ErrorAlertMiddleware recovers panics and reports failures to a Slack webhook.
// The same error is reported at most once per cooldown.
type ErrorAlertMiddleware struct {
	config        SlackAlertConfig
	post          WebhookPoster
	alertedErrors map[string]time.Time
	mutex         sync.Mutex
	alertCooldown time.Duration
	wg            sync.WaitGroup
}

func NewErrorAlertMiddleware(config SlackAlertConfig) *ErrorAlertMiddleware {
	return NewErrorAlertMiddlewareWithPoster(config, slack.PostWebhookContext)
}

func NewErrorAlertMiddlewareWithPoster(config SlackAlertConfig, post WebhookPoster) *ErrorAlertMiddleware {
	return &ErrorAlertMiddleware{
		config:        config,
		post:          post,
		alertedErrors: make(map[string]time.Time),
		alertCooldown: 10 * time.Minute,
	}
}

// HTTPMiddleware recovers handler panics, alerts and answers 500
func (m *ErrorAlertMiddleware) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				m.reportPanic(fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path), rec)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// WrapBackgroundTask alerts on a task's error or panic. A panic is returned as an error.
func (m *ErrorAlertMiddleware) WrapBackgroundTask(taskName string, task periodic.Task) periodic.Task {
	return func(ctx context.Context) (err error) {
		alertContext := "Background task: " + taskName
		defer func() {
			if rec := recover(); rec != nil {
				m.reportPanic(alertContext, rec)
				err = fmt.Errorf("panic in %s: %v", taskName, rec)
			}
		}()

		if err := task(ctx); err != nil {
			m.AlertOnError(err, alertContext)
			return err
		}
		return nil
	}
}

// WrapEventHandler isolates a gateway event listener and alerts on its panics
func WrapEventHandler[E any](m *ErrorAlertMiddleware, name string, handler func(context.Context, E)) func(context.Context, E) {
	return func(ctx context.Context, event E) {
		defer func() {
			if rec := recover(); rec != nil {
				m.reportPanic("Event handler: "+name, rec)
			}
		}()
		handler(ctx, event)
	}
}

// AlertOnError sends an alert unless the same error was alerted within the cooldown
func (m *ErrorAlertMiddleware) AlertOnError(err error, alertContext string) {
	errorMsg := fmt.Sprintf("%s: %v", alertContext, err)
	hash := fmt.Sprintf("%x", md5.Sum([]byte(errorMsg)))

	m.mutex.Lock()
	if last, exists := m.alertedErrors[hash]; exists && time.Since(last) < m.alertCooldown {
		m.mutex.Unlock()
		return
	}
	m.alertedErrors[hash] = time.Now()
	m.mutex.Unlock()

	m.send(errorMsg, alertContext)
}

func (m *ErrorAlertMiddleware) reportPanic(alertContext string, rec any) {
	errorMsg := fmt.Sprintf("%s: PANIC - %v", alertContext, rec)
	log.Printf("❌ %s", errorMsg)
	m.send(errorMsg, alertContext+" (PANIC)")
}

// Wait blocks until every in-flight alert has been delivered
func (m *ErrorAlertMiddleware) Wait() {
	m.wg.Wait()
}

func (m *ErrorAlertMiddleware) send(errorMsg, alertContext string) {
	if m.config.WebhookURL == "" {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
		defer cancel()

		if err := m.post(ctx, m.config.WebhookURL, m.buildAlert(errorMsg, alertContext)); err != nil {
			log.Printf("❌ Failed to send Slack alert: %v", err)
		}
	}()
}

func (m *ErrorAlertMiddleware) buildAlert(errorMsg, alertContext string) *slack.WebhookMessage {
	prefix := ""
	if m.config.Environment == "dev" {
		prefix = "[dev] "
	}

	header := slack.NewHeaderBlock(
		slack.NewTextBlockObject(slack.PlainTextType, fmt.Sprintf("🚨 %s[%s] Error Alert", prefix, m.config.AppName), true, false),
	)
	fields := slack.NewSectionBlock(nil, []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, "*Service:* "+m.config.AppName, false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Environment:* "+m.config.Environment, false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Context:* "+alertContext, false, false),
	}, nil)
	body := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Error:*\n```%s```", errorMsg), false, false),
		nil, nil,
	)

	return &slack.WebhookMessage{
		Text:   errorMsg,
		Blocks: &slack.Blocks{BlockSet: []slack.Block{header, fields, body}},
	}
}
