package pubsub

import (
	"encoding/json"

	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/cacheset"
)

func registerBuiltinHandlers() {
	AddHandler("evict_cache_set", handleEvictCacheSet, evictCacheSetData{})
}

type evictCacheSetData struct {
	Name string          `json:"name"`
	Key  json.RawMessage `json:"key"`
}

func handleEvictCacheSet(evt *Event) {
	cast := evt.Data.(*evictCacheSetData)

	slot := common.CacheSet.FindSlot(cast.Name)
	if slot == nil {
		return
	}

	t := slot.NewKey()
	err := json.Unmarshal(cast.Key, t)
	if err != nil {
		logger.WithError(err).Error("failed unmarshaling cache set key")
		return
	}

	slot.Delete(t)
}

// EvictCacheSet deletes the key from the slot locally and tells the other
// processes to do the same.
func EvictCacheSet(slot *cacheset.Slot, key interface{}) {
	slot.Delete(key)

	marshalledKey, err := json.Marshal(key)
	if err != nil {
		logger.WithError(err).Error("failed marshaling cache set key")
		return
	}

	PublishLogErr("evict_cache_set", -1, &evictCacheSetData{
		Name: slot.Name(),
		Key:  marshalledKey,
	})
}
