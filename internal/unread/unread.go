// Package unread derives per-channel unread counts and read-cursor
// advances from batches of newly-known messages.
//
// The reconciliation uses two upper bounds on what the user may not have
// seen: everything newer than the stored read cursor, and everything
// newer than the user's own most recent message in the channel (sending
// a message implies having seen the channel up to that point). The
// tighter bound wins, which keeps the user's own sends from inflating
// their unread count.
package unread

import "github.com/WinstonKong/bubble-chat/internal/model"

// Result is the per-channel outcome of reconciling one batch.
// Read holds cursor advances (only channels whose cursor moved);
// Unread holds the replacement transient unread count for every channel
// that appeared in the batch.
type Result struct {
	Read   map[string]int64
	Unread map[string]int
}

// MergeBatch reconciles a batch of messages against the stored read
// cursors and the current transient unread counts. The batch may come
// from any source: initial load, live push, or pagination. Messages
// without a server-assigned MessageID never advance a cursor.
func MergeBatch(uid string, msgs []*model.Message, read map[string]int64, current map[string]int) *Result {
	res := &Result{
		Read:   make(map[string]int64),
		Unread: make(map[string]int),
	}

	byChannel := make(map[string][]*model.Message)
	for _, m := range msgs {
		if m == nil || m.ChannelID == "" {
			continue
		}
		byChannel[m.ChannelID] = append(byChannel[m.ChannelID], m)
	}

	for cid, channelMsgs := range byChannel {
		sorted := make([]*model.Message, len(channelMsgs))
		copy(sorted, channelMsgs)
		model.SortNewestFirst(sorted)

		// The ChannelStart sentinel is structural, not countable.
		if n := len(sorted); n > 0 && sorted[n-1].MessageType == model.MessageTypeChannelStart {
			sorted = sorted[:n-1]
		}

		cursor, hasCursor := read[cid]

		selfIndex := -1
		for i, m := range sorted {
			if m.UserID == uid {
				selfIndex = i
				break
			}
		}

		afterSelf := len(sorted)
		if selfIndex != -1 {
			afterSelf = selfIndex
		}

		// The cursor bound compares IDs rather than locating the
		// cursor's own message: a pagination page of older history
		// does not contain it, and every message in such a page is
		// already read.
		afterCursor := len(sorted)
		if hasCursor {
			afterCursor = 0
			for _, m := range sorted {
				if m.MessageID != nil && *m.MessageID > cursor {
					afterCursor++
				}
			}
		}

		res.Unread[cid] = min(afterSelf, afterCursor) + current[cid]

		// The self-authored bound is tighter: advance the cursor to the
		// user's own message, but never move a known cursor backwards.
		if afterSelf < afterCursor {
			if id := sorted[selfIndex].MessageID; id != nil {
				if !hasCursor || *id > cursor {
					res.Read[cid] = *id
				}
			}
		}
	}

	return res
}
