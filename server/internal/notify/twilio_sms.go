package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// TwilioSender реализует SMSSender поверх Twilio REST API
type TwilioSender struct {
	client *twilio.RestClient
	logger *zap.Logger
}

// NewTwilioSender создает клиента Twilio с явными учетными данными
func NewTwilioSender(accountSID, authToken string, logger *zap.Logger) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioSender{
		client: client,
		logger: logger,
	}
}

func (s *TwilioSender) Send(ctx context.Context, msg SMSMessage) (*SMSResult, error) {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(msg.From)
	params.SetBody(msg.Body)
	if msg.StatusCallback != "" {
		params.SetStatusCallback(msg.StatusCallback)
	}

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return nil, fmt.Errorf("twilio create message: %w", err)
	}

	result := resultFromMessage(resp)
	s.logger.Debug("SMS create response",
		zap.String("sid", result.Sid),
		zap.String("status", result.Status),
		zap.String("to", result.To),
	)
	return result, nil
}

func (s *TwilioSender) Fetch(ctx context.Context, sid string) (*SMSResult, error) {
	resp, err := s.client.Api.FetchMessage(sid, &twilioapi.FetchMessageParams{})
	if err != nil {
		return nil, fmt.Errorf("twilio fetch message: %w", err)
	}
	return resultFromMessage(resp), nil
}

func resultFromMessage(msg *twilioapi.ApiV2010Message) *SMSResult {
	result := &SMSResult{
		ErrorCode:    msg.ErrorCode,
		ErrorMessage: msg.ErrorMessage,
	}
	if msg.Sid != nil {
		result.Sid = *msg.Sid
	}
	if msg.Status != nil {
		result.Status = *msg.Status
	}
	if msg.To != nil {
		result.To = *msg.To
	}
	if msg.From != nil {
		result.From = *msg.From
	}
	return result
}
