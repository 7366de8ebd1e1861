package clients

import (
	"encoding/json"
	"fmt"
	"time"

	"heartmon-svc/src/internal/config"
	"heartmon-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// MailerClient publishes email jobs to the mail worker queue. Recovery,
// cancellation and session-start emails are all delivered asynchronously;
// a queue failure never fails the originating request beyond its own error.
type MailerClient struct {
	channel *amqp.Channel
	cfg     *config.RabbitMQConfig
}

// NewMailerClient creates a new mail queue publisher.
func NewMailerClient(cfg *config.Configuration, channel *amqp.Channel) *MailerClient {
	return &MailerClient{
		channel: channel,
		cfg:     &cfg.Queue.RabbitMQ,
	}
}

// SendRecoveryEmail enqueues a password recovery email carrying the client
// supplied recovery code.
func (c *MailerClient) SendRecoveryEmail(to, fullName, languageCode string, code int) error {
	return c.publish(models.EmailMessage{
		Type:         models.EmailTypeRecovery,
		To:           to,
		FullName:     fullName,
		LanguageCode: languageCode,
		RecoveryCode: code,
		Timestamp:    time.Now(),
	})
}

// SendCancellationEmail enqueues a session cancellation notice.
func (c *MailerClient) SendCancellationEmail(to, fullName, sessionName, sessionDate, sessionHour string) error {
	return c.publish(models.EmailMessage{
		Type:        models.EmailTypeSessionCancel,
		To:          to,
		FullName:    fullName,
		SessionName: sessionName,
		SessionDate: sessionDate,
		SessionHour: sessionHour,
		Timestamp:   time.Now(),
	})
}

// SendSessionStartEmail enqueues a session-started notice with the meeting
// credentials for the signed users.
func (c *MailerClient) SendSessionStartEmail(to, fullName, sessionName, zoomID, zoomPassword string) error {
	return c.publish(models.EmailMessage{
		Type:         models.EmailTypeSessionStarted,
		To:           to,
		FullName:     fullName,
		SessionName:  sessionName,
		ZoomID:       zoomID,
		ZoomPassword: zoomPassword,
		Timestamp:    time.Now(),
	})
}

func (c *MailerClient) publish(message models.EmailMessage) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal email message: %w", err)
	}

	err = c.channel.Publish(
		c.cfg.Exchange,
		c.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"type": message.Type,
			"to":   message.To,
		}).Error("Failed to publish email message")
		return models.ErrEmailPublish
	}

	logrus.WithFields(logrus.Fields{
		"type":        message.Type,
		"to":          message.To,
		"exchange":    c.cfg.Exchange,
		"routing_key": c.cfg.RoutingKey,
	}).Debug("Email message published")

	return nil
}
