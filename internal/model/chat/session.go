package chat

import "time"

// Session captures a transient anonymous conversation bound to a bot.
type Session struct {
	ID        string    `json:"id"`
	BotName   string    `json:"botName"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}
