package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/you/buzoku/domain"
	"go.uber.org/zap"
)

const twilioGateway = "twilio"

// messageCreator is the slice of the Twilio API this service uses
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioServiceImpl implements domain.SMSSender
type TwilioServiceImpl struct {
	api        messageCreator
	fromNumber string
	logger     *zap.Logger
}

// NewTwilioService creates a new Twilio SMS sender. Without a from number
// messages are logged instead of sent.
func NewTwilioService(accountSID, authToken, fromNumber string, logger *zap.Logger) domain.SMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioServiceImpl{
		api:        client.Api,
		fromNumber: fromNumber,
		logger:     logger.Named("sms"),
	}
}

// SendSMS implements domain.SMSSender. Every recipient is attempted; the
// first failure is returned after the loop.
func (t *TwilioServiceImpl) SendSMS(ctx context.Context, to []string, message string) (*domain.SMSResult, error) {
	if len(to) == 0 {
		return nil, errors.New("no sms recipients")
	}

	if t.fromNumber == "" {
		t.logger.Info("mock sms", zap.Strings("to", to), zap.String("message", message))
		return &domain.SMSResult{Success: true, Gateway: "mock"}, nil
	}

	result := &domain.SMSResult{Gateway: twilioGateway}
	var firstErr error
	for _, number := range to {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		params := &twilioApi.CreateMessageParams{}
		params.SetTo(number)
		params.SetFrom(t.fromNumber)
		params.SetBody(message)

		resp, err := t.api.CreateMessage(params)
		if err != nil {
			t.logger.Warn("sms dispatch failed", zap.String("to", number), zap.Error(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to send SMS to %s: %w", number, err)
			}
			continue
		}
		if resp != nil && resp.Sid != nil {
			result.MessageSIDs = append(result.MessageSIDs, *resp.Sid)
		}
	}

	result.Success = firstErr == nil
	return result, firstErr
}
