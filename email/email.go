// Package email delivers one-time codes. The development backend only logs them;
// production delivery belongs to the mail provider.
package email

import (
	"context"

	"github.com/sirupsen/logrus"
)

type Purpose string

const (
	Verification Purpose = "verification"
	Recovery     Purpose = "recovery"
)

type LogMailer struct {
	log logrus.FieldLogger
}

func NewLogMailer(log logrus.FieldLogger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendOTP(ctx context.Context, to string, code string, purpose Purpose) error {
	m.log.WithFields(logrus.Fields{
		"to":      to,
		"purpose": purpose,
		"otp":     code,
	}).Info("otp mail")
	return nil
}
