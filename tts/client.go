// Package tts synthesizes narration through the Microsoft Edge read-aloud
// service over its websocket protocol.
package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wssEndpoint  = "wss://speech.platform.bing.com/consumer/speech/synthesize/readaloud/edge/v1"
	trustedToken = "6A5AA1D4EAFF4E9FB37E23D68491D6F4"
	outputFormat = "audio-24khz-48kbitrate-mono-mp3"
	// defaultRate speeds narration up slightly; story pacing drags at 1.0x.
	defaultRate = "+10%"

	handshakeTimeout = 15 * time.Second
	synthesisTimeout = 120 * time.Second
)

// Client synthesizes speech for one utterance per connection, the way the
// service expects.
type Client struct {
	rate   string
	dialer *websocket.Dialer
}

// NewClient builds a client speaking at the given rate ("+10%", "-5%", ...).
// An empty rate uses the default.
func NewClient(rate string) *Client {
	if rate == "" {
		rate = defaultRate
	}
	return &Client{
		rate: rate,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

// Synthesize renders text with the given voice into an mp3 file.
func (c *Client) Synthesize(ctx context.Context, text, voice, outPath string) error {
	audio, err := c.stream(ctx, text, voice)
	if err != nil {
		return err
	}
	if len(audio) == 0 {
		return fmt.Errorf("no audio received for voice %s", voice)
	}
	if err := os.WriteFile(outPath, audio, 0644); err != nil {
		return fmt.Errorf("write narration: %w", err)
	}
	return nil
}

func (c *Client) stream(ctx context.Context, text, voice string) ([]byte, error) {
	connID := strings.ReplaceAll(uuid.NewString(), "-", "")
	url := fmt.Sprintf("%s?TrustedClientToken=%s&ConnectionId=%s", wssEndpoint, trustedToken, connID)

	header := http.Header{}
	header.Set("Origin", "chrome-extension://jdiccldimpdaibmpdkjnbmckianbfold")
	header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36")

	conn, _, err := c.dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("connect to speech service: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(synthesisTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(speechConfig())); err != nil {
		return nil, fmt.Errorf("send speech config: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssmlMessage(text, voice, c.rate))); err != nil {
		return nil, fmt.Errorf("send ssml: %w", err)
	}

	var audio bytes.Buffer
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read from speech service: %w", err)
		}
		switch msgType {
		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				return audio.Bytes(), nil
			}
		case websocket.BinaryMessage:
			// Binary frames start with a big-endian header length; audio
			// bytes follow the header.
			if len(data) < 2 {
				continue
			}
			headerLen := int(binary.BigEndian.Uint16(data[:2]))
			if len(data) < 2+headerLen {
				continue
			}
			if strings.Contains(string(data[2:2+headerLen]), "Path:audio") {
				audio.Write(data[2+headerLen:])
			}
		}
	}
}

func timestamp() string {
	return time.Now().UTC().Format("Mon Jan 02 2006 15:04:05 GMT+0000 (Coordinated Universal Time)")
}

func speechConfig() string {
	return "X-Timestamp:" + timestamp() + "\r\n" +
		"Content-Type:application/json; charset=utf-8\r\n" +
		"Path:speech.config\r\n\r\n" +
		`{"context":{"synthesis":{"audio":{"metadataoptions":{"sentenceBoundaryEnabled":"false","wordBoundaryEnabled":"false"},"outputFormat":"` + outputFormat + `"}}}}`
}

func ssmlMessage(text, voice, rate string) string {
	ssml := fmt.Sprintf(
		"<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'>"+
			"<voice name='%s'><prosody pitch='+0Hz' rate='%s' volume='+0%%'>%s</prosody></voice></speak>",
		voice, rate, escapeXML(text),
	)
	return "X-RequestId:" + strings.ReplaceAll(uuid.NewString(), "-", "") + "\r\n" +
		"Content-Type:application/ssml+xml\r\n" +
		"X-Timestamp:" + timestamp() + "\r\n" +
		"Path:ssml\r\n\r\n" +
		ssml
}

func escapeXML(text string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"'", "&apos;",
		`"`, "&quot;",
	)
	return r.Replace(text)
}
