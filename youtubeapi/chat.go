package youtubeapi

import (
	"context"

	yt "google.golang.org/api/youtube/v3"

	"github.com/onnwee/livechat-bot/monitor"
)

// ChatClient implements monitor.ChatSource over liveChatMessages.
type ChatClient struct {
	API APIProvider
}

// ListMessages fetches one page of chat events for chatID starting at
// pageToken (empty for the head of the chat).
func (c *ChatClient) ListMessages(ctx context.Context, chatID, pageToken string, maxResults int64) (monitor.ChatPage, error) {
	svc, err := c.API.Service(ctx)
	if err != nil {
		return monitor.ChatPage{}, classify("liveChatMessages.list", err)
	}
	call := svc.LiveChatMessages.List(chatID, []string{"snippet", "authorDetails"}).
		MaxResults(maxResults).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return monitor.ChatPage{}, classify("liveChatMessages.list", err)
	}
	page := monitor.ChatPage{
		Messages:  make([]monitor.ChatMessage, 0, len(resp.Items)),
		NextToken: resp.NextPageToken,
	}
	for _, item := range resp.Items {
		page.Messages = append(page.Messages, mapMessage(item))
	}
	return page, nil
}

// SendMessage posts a text message into the chat.
func (c *ChatClient) SendMessage(ctx context.Context, chatID, text string) error {
	svc, err := c.API.Service(ctx)
	if err != nil {
		return classify("liveChatMessages.insert", err)
	}
	msg := &yt.LiveChatMessage{
		Snippet: &yt.LiveChatMessageSnippet{
			LiveChatId: chatID,
			Type:       "textMessageEvent",
			TextMessageDetails: &yt.LiveChatTextMessageDetails{
				MessageText: text,
			},
		},
	}
	if _, err := svc.LiveChatMessages.Insert([]string{"snippet"}, msg).Context(ctx).Do(); err != nil {
		return classify("liveChatMessages.insert", err)
	}
	return nil
}

func mapMessage(m *yt.LiveChatMessage) monitor.ChatMessage {
	out := monitor.ChatMessage{ID: m.Id, Type: monitor.MessageText}
	if a := m.AuthorDetails; a != nil {
		out.AuthorName = a.DisplayName
		out.AuthorChannelID = a.ChannelId
	}
	if sn := m.Snippet; sn != nil {
		out.Text = sn.DisplayMessage
		out.PublishedAt = parseTime(sn.PublishedAt)
		out.Type = messageType(sn.Type)
	}
	return out
}

func messageType(apiType string) monitor.MessageType {
	switch apiType {
	case "superChatEvent", "superStickerEvent":
		return monitor.MessageSuperChat
	case "newSponsorEvent":
		return monitor.MessageNewMember
	case "memberMilestoneChatEvent":
		return monitor.MessageMemberMilestone
	default:
		return monitor.MessageText
	}
}
