package slack

import (
	"strings"
	"sync"

	"github.com/matillion/reaction-tally/internal/reaction"
)

type channelIndex struct {
	mu    sync.RWMutex
	names map[string]reaction.Channel
	ids   map[string]reaction.Channel
}

func newIndex() *channelIndex {
	return &channelIndex{
		names: make(map[string]reaction.Channel),
		ids:   make(map[string]reaction.Channel),
	}
}

// Add records channels; later entries replace earlier ones with the same id.
func (ix *channelIndex) Add(channels []reaction.Channel) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, ch := range channels {
		if ch.Name != "" {
			ix.names[strings.ToLower(ch.Name)] = ch
		}
		ix.ids[strings.ToLower(ch.ID)] = ch
	}
}

/*
Get a channel by name
*/
func (ix *channelIndex) GetByName(name string) (reaction.Channel, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ch, ok := ix.names[strings.ToLower(strings.TrimPrefix(name, "#"))]
	return ch, ok
}

/*
Get a channel by ID
*/
func (ix *channelIndex) GetByID(id string) (reaction.Channel, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ch, ok := ix.ids[strings.ToLower(id)]
	return ch, ok
}

// Size returns the number of channels in the index
func (ix *channelIndex) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.ids)
}
