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

// TelegramRepository sends rendered deal messages through the Telegram
// Bot API. The channel address is the chat id of the bot identity.
type TelegramRepository struct {
	logger logger.Logger
	token  string
	client *http.Client
}

// NewTelegramRepository creates a new Telegram channel
func NewTelegramRepository(token string, timeout time.Duration, logger logger.Logger) repository.ChannelRepository {
	return &TelegramRepository{
		logger: logger,
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the channel name
func (r *TelegramRepository) Name() string {
	return entity.ChannelTelegram
}

type telegramSendRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Send delivers a text message to the given chat id. Telegram confirms
// acceptance with the message id, which serves as the delivery receipt.
func (r *TelegramRepository) Send(ctx context.Context, address, message string) (*entity.DeliveryReceipt, error) {
	reqBody := telegramSendRequest{
		ChatID: address,
		Text:   message,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", r.token)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var response struct {
		OK     bool `json:"ok"`
		Result struct {
			MessageID int64 `json:"message_id"`
		} `json:"result"`
		Description string `json:"description"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !response.OK {
		return nil, fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode, response.Description)
	}

	r.logger.Info("Message sent to Telegram",
		"messageId", response.Result.MessageID,
		"chatId", address)

	return &entity.DeliveryReceipt{
		MessageID:   fmt.Sprintf("%d", response.Result.MessageID),
		DeliveredAt: time.Now(),
	}, nil
}
