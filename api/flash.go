package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	flashCookieName = "airadmin_flash"
	flashCookieTTL  = 30 * time.Second
	flashContextKey = "airadmin.flashes"
)

const (
	flashSuccess = "success"
	flashInfo    = "info"
	flashWarning = "warning"
	flashDanger  = "danger"
)

// FlashMessage is a one-shot notice shown on the next rendered page.
type FlashMessage struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// flasher signs flash cookies with HMAC-SHA256 so a client cannot inject
// markup into the next page.
type flasher struct {
	secret []byte
	secure bool
}

// add queues a message. Messages added during one request accumulate and
// travel in a single cookie.
func (f flasher) add(c *gin.Context, category, message string) {
	var queued []FlashMessage
	if v, ok := c.Get(flashContextKey); ok {
		queued = v.([]FlashMessage)
	}
	queued = append(queued, FlashMessage{Category: category, Message: message})
	c.Set(flashContextKey, queued)

	value, err := f.encode(queued)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookieName, value, int(flashCookieTTL.Seconds()), "/", "", f.secure, true)
}

// take reads and clears pending messages. A tampered cookie yields nothing.
func (f flasher) take(c *gin.Context) []FlashMessage {
	cookie, err := c.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	c.SetCookie(flashCookieName, "", -1, "/", "", f.secure, true)

	messages, err := f.decode(cookie)
	if err != nil {
		_ = c.Error(err)
		return nil
	}
	return messages
}

func (f flasher) encode(messages []FlashMessage) (string, error) {
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("failed to marshal flash messages: %w", err)
	}

	mac := hmac.New(sha256.New, f.secret)
	mac.Write(jsonData)
	signed := append(mac.Sum(nil), jsonData...)
	return base64.URLEncoding.EncodeToString(signed), nil
}

func (f flasher) decode(value string) ([]FlashMessage, error) {
	signed, err := base64.URLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode flash cookie: %w", err)
	}
	if len(signed) < sha256.Size {
		return nil, errors.New("invalid flash cookie length")
	}

	sig, jsonData := signed[:sha256.Size], signed[sha256.Size:]
	mac := hmac.New(sha256.New, f.secret)
	mac.Write(jsonData)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return nil, errors.New("invalid flash cookie signature")
	}

	var messages []FlashMessage
	if err := json.Unmarshal(jsonData, &messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flash messages: %w", err)
	}
	return messages, nil
}
