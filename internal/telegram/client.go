package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client is a Telegram Bot API client
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new Telegram Bot API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		// long polling holds the connection open for up to 30s
		httpClient: &http.Client{Timeout: 40 * time.Second},
	}
}

// apiResponse is the envelope every Bot API method returns
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type copyMessageRequest struct {
	ChatID     int64 `json:"chat_id"`
	FromChatID int64 `json:"from_chat_id"`
	MessageID  int64 `json:"message_id"`
}

type getUpdatesRequest struct {
	Offset  int64 `json:"offset"`
	Timeout int   `json:"timeout"`
}

// SendMessage sends a plain text message to a chat
func (c *Client) SendMessage(chatID int64, text string) error {
	return c.call("sendMessage", sendMessageRequest{ChatID: chatID, Text: text}, nil)
}

// CopyMessage delivers a copy of an existing message to another chat.
// Unlike forwardMessage the copy carries no origin header, so the source
// chat stays hidden from the recipient.
func (c *Client) CopyMessage(toChatID, fromChatID, messageID int64) error {
	return c.call("copyMessage", copyMessageRequest{
		ChatID:     toChatID,
		FromChatID: fromChatID,
		MessageID:  messageID,
	}, nil)
}

// GetUpdates long-polls the Bot API for new updates starting at offset
func (c *Client) GetUpdates(offset int64, timeoutSeconds int) ([]Update, error) {
	var updates []Update
	err := c.call("getUpdates", getUpdatesRequest{Offset: offset, Timeout: timeoutSeconds}, &updates)
	if err != nil {
		return nil, err
	}
	return updates, nil
}

// SetWebhook registers a webhook URL for update delivery
func (c *Client) SetWebhook(url string) error {
	return c.call("setWebhook", map[string]string{"url": url}, nil)
}

// DeleteWebhook removes a previously registered webhook so long polling works
func (c *Client) DeleteWebhook() error {
	return c.call("deleteWebhook", struct{}{}, nil)
}

// call invokes a Bot API method and decodes its result into out when given
func (c *Client) call(method string, payload interface{}, out interface{}) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !apiResp.OK {
		return fmt.Errorf("API returned error %d: %s", apiResp.ErrorCode, apiResp.Description)
	}

	if out != nil {
		if err := json.Unmarshal(apiResp.Result, out); err != nil {
			return fmt.Errorf("failed to decode result: %w", err)
		}
	}

	return nil
}
