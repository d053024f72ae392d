package relay

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/relay/internal/metrics"
	"github.com/eldtechnologies/relay/internal/models"
)

// Rough per-value costs used by estimateSize. The result is a soft threshold,
// not an exact accounting of heap usage.
const (
	wordSize       = 8
	stringHeader   = 16
	sliceHeader    = 24
	interfaceSize  = 16
	mapOverhead    = 48
	signalOverhead = 96
)

// sizeGuard clears the whole store once its estimated footprint exceeds
// limit. Eviction is non-selective.
type sizeGuard struct {
	enabled bool
	limit   int64
	logger  zerolog.Logger
}

// enforce evicts everything if the store is over the limit and reports
// whether it did. Caller holds the lock.
func (g *sizeGuard) enforce(inboxes *inboxStore, signals *waitRegistry) bool {
	if !g.enabled {
		return false
	}

	size := footprint(inboxes, signals)
	metrics.StoreBytes.Set(float64(size))
	if size <= g.limit {
		return false
	}

	g.logger.Warn().
		Int64("estimated_bytes", size).
		Int64("limit", g.limit).
		Int("inboxes", inboxes.count()).
		Int("signals", signals.count()).
		Msg("store over size limit, evicting all inboxes")

	inboxes.reset()
	signals.reset()
	metrics.Evictions.Inc()
	metrics.StoreBytes.Set(0)
	return true
}

// footprint estimates the bytes held by both collections. Caller holds the lock.
func footprint(inboxes *inboxStore, signals *waitRegistry) int64 {
	var size int64
	for name, msgs := range inboxes.inboxes {
		size += estimateSize(name) + sliceHeader
		for _, msg := range msgs {
			size += estimateSize(msg)
		}
	}
	for name := range signals.signals {
		size += estimateSize(name) + signalOverhead
	}
	return size
}

// estimateSize walks JSON-shaped values and sums approximate sizes of every
// key and leaf.
func estimateSize(v any) int64 {
	switch t := v.(type) {
	case nil:
		return wordSize
	case string:
		return stringHeader + int64(len(t))
	case json.Number:
		return stringHeader + int64(len(t))
	case bool:
		return 1
	case float64, float32, int, int64, int32, uint, uint64, uint32:
		return wordSize
	case models.Message:
		return estimateMap(t)
	case map[string]any:
		return estimateMap(t)
	case []any:
		size := int64(sliceHeader)
		for _, item := range t {
			size += interfaceSize + estimateSize(item)
		}
		return size
	default:
		return interfaceSize
	}
}

func estimateMap(m map[string]any) int64 {
	size := int64(mapOverhead)
	for k, v := range m {
		size += estimateSize(k) + interfaceSize + estimateSize(v)
	}
	return size
}
