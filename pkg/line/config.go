// Package line holds the LINE Messaging API surface the bot touches: the
// inbound webhook payload types and the outbound push client.
package line

import "time"

// Config holds the LINE Messaging API settings.
type Config struct {
	ChannelToken string        `env:"LINE_ACCESS_TOKEN,required"`
	PushURL      string        `env:"LINE_PUSH_URL" envDefault:"https://api.line.me/v2/bot/message/push"`
	Timeout      time.Duration `env:"LINE_HTTP_TIMEOUT" envDefault:"10s"`
}
