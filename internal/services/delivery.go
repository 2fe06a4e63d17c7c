package services

import (
	"context"
	"fmt"

	"github.com/jobport/backend/pkg/logger"
)

// CodeSender delivers a one-time code to a destination. Delivery is
// fire-and-forget from the OTP store's perspective: a send failure is surfaced
// to the caller but never rolls back challenge creation.
type CodeSender interface {
	Send(ctx context.Context, destination, message string) error
}

// LogSender is the development sender: it writes the code to the structured
// log instead of an SMS/email gateway.
type LogSender struct{}

func (LogSender) Send(_ context.Context, destination, message string) error {
	logger.Info("otp_code_dispatched", map[string]interface{}{
		"destination": destination,
		"message":     message,
	})
	return nil
}

func loginCodeMessage(code string) string {
	return fmt.Sprintf("Your JobPort login code is %s. It expires in 5 minutes.", code)
}

func emailChangeCodeMessage(code string) string {
	return fmt.Sprintf("Your JobPort email verification code is %s. It expires in 5 minutes.", code)
}
