package service

import (
	"sort"

	"github.com/PritStyling132/Rentpal-sub001/internal/domain"
)

// MergeMessages reconciles messages already held (from the live channel)
// with messages fetched from the durable store. Rows merge by message ID
// with the fetched copy winning, since the store is the source of truth for
// read/deleted stamps. The result is sorted by creation time, then ID, so
// re-running the merge with overlapping input is a no-op.
func MergeMessages(have, fetched []*domain.Message) []*domain.Message {
	byID := make(map[int64]*domain.Message, len(have)+len(fetched))
	for _, m := range have {
		byID[m.ID] = m
	}
	for _, m := range fetched {
		byID[m.ID] = m
	}

	res := make([]*domain.Message, 0, len(byID))
	for _, m := range byID {
		res = append(res, m)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.Before(res[j].CreatedAt)
		}
		return res[i].ID < res[j].ID
	})
	return res
}
