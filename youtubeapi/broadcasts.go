package youtubeapi

import (
	"context"
	"time"

	yt "google.golang.org/api/youtube/v3"

	"github.com/onnwee/livechat-bot/monitor"
)

// BroadcastClient implements monitor.BroadcastSource over liveBroadcasts.list.
type BroadcastClient struct {
	API APIProvider
}

// ListBroadcasts fetches the channel's broadcasts across all lifecycle
// statuses and maps them into monitor records, in API return order.
func (c *BroadcastClient) ListBroadcasts(ctx context.Context, limit int64) ([]monitor.LivestreamInfo, error) {
	svc, err := c.API.Service(ctx)
	if err != nil {
		return nil, classify("liveBroadcasts.list", err)
	}
	resp, err := svc.LiveBroadcasts.List([]string{"snippet", "status", "contentDetails"}).
		BroadcastStatus("all").
		MaxResults(limit).
		Context(ctx).Do()
	if err != nil {
		return nil, classify("liveBroadcasts.list", err)
	}
	out := make([]monitor.LivestreamInfo, 0, len(resp.Items))
	for _, b := range resp.Items {
		out = append(out, mapBroadcast(b))
	}
	return out, nil
}

func mapBroadcast(b *yt.LiveBroadcast) monitor.LivestreamInfo {
	info := monitor.LivestreamInfo{
		ID:     b.Id,
		Status: broadcastStatus(b.Status),
		URL:    "https://www.youtube.com/watch?v=" + b.Id,
	}
	if sn := b.Snippet; sn != nil {
		info.Title = sn.Title
		info.Description = sn.Description
		info.LiveChatID = sn.LiveChatId
		info.ScheduledStartTime = parseTime(sn.ScheduledStartTime)
		info.ActualStartTime = parseTime(sn.ActualStartTime)
		info.ActualEndTime = parseTime(sn.ActualEndTime)
	}
	return info
}

// broadcastStatus folds the API's lifeCycleStatus values into the three
// states the tracker cares about. Everything that is not live or complete
// (created, ready, testing, ...) counts as upcoming.
func broadcastStatus(st *yt.LiveBroadcastStatus) monitor.Status {
	if st == nil {
		return monitor.StatusUpcoming
	}
	switch st.LifeCycleStatus {
	case "complete":
		return monitor.StatusEnded
	case "live":
		return monitor.StatusLive
	default:
		return monitor.StatusUpcoming
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
