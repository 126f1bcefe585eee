package adapter

import "context"

// InlineButton is a transport-neutral inline keyboard button. If URL is set
// the button opens a link, otherwise Data is sent back as a callback.
type InlineButton struct {
	Text string
	Data string
	URL  string
}

// BotAdapter is the outbound chat-transport port consumed by use cases and
// the facade. Inbound routing stays inside the infra adapter.
type BotAdapter interface {
	SendMessage(ctx context.Context, tgID int64, text string) error
	SendPhoto(ctx context.Context, tgID int64, fileID, caption string) error
	SendVideo(ctx context.Context, tgID int64, fileID, caption string) error
	SendAnimation(ctx context.Context, tgID int64, fileID string) error
	SendButtons(ctx context.Context, tgID int64, text string, rows [][]InlineButton) error
}
