package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"farewatch-service/internal/domain/entity"
	"farewatch-service/internal/domain/repository"
	"farewatch-service/pkg/logger"
)

// WhatsappRepository sends rendered deal messages through the WhatsApp
// push service. Used for alerts created from the web front end.
type WhatsappRepository struct {
	logger      logger.Logger
	baseURL     string
	bearerToken string
	client      *http.Client
}

// NewWhatsappRepository creates a new WhatsApp channel
func NewWhatsappRepository(baseURL, bearerToken string, timeout time.Duration, logger logger.Logger) repository.ChannelRepository {
	return &WhatsappRepository{
		logger:      logger,
		baseURL:     baseURL,
		bearerToken: bearerToken,
		client:      &http.Client{Timeout: timeout},
	}
}

// Name returns the channel name
func (r *WhatsappRepository) Name() string {
	return entity.ChannelWhatsApp
}

type whatsappSendRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Message     struct {
		Text string `json:"text"`
	} `json:"message"`
	Type string `json:"type"`
}

// Send delivers a text message to the given phone number and returns the
// service's delivery receipt
func (r *WhatsappRepository) Send(ctx context.Context, address, message string) (*entity.DeliveryReceipt, error) {
	payload := whatsappSendRequest{
		PhoneNumber: address,
		Type:        "text",
	}
	payload.Message.Text = message

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/messages/send", r.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+r.bearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errorBody map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errorBody)
		return nil, fmt.Errorf("WhatsApp service returned status %d: %v", resp.StatusCode, errorBody)
	}

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			MessageID   string    `json:"messageId"`
			DeliveredAt time.Time `json:"deliveredAt"`
		} `json:"data"`
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("WhatsApp send failed: %s (code: %s)", response.Error.Message, response.Error.Code)
	}

	r.logger.Info("Message sent to WhatsApp service",
		"messageId", response.Data.MessageID,
		"phone", address)

	// The service confirms delivery only when it reports a message id
	if response.Data.MessageID == "" {
		return nil, nil
	}

	deliveredAt := response.Data.DeliveredAt
	if deliveredAt.IsZero() {
		deliveredAt = time.Now()
	}
	return &entity.DeliveryReceipt{
		MessageID:   response.Data.MessageID,
		DeliveredAt: deliveredAt,
	}, nil
}
