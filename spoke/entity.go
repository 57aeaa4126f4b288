package spoke

import (
	"log/slog"
	"strconv"
)

// EntityId identifies an entity within a Storage. The zero value
// never refers to a valid entity.
type EntityId uint32

const NoEntityId EntityId = 0

func (e EntityId) String() string {
	return strconv.Itoa(int(e))
}

func (e EntityId) LogValue() slog.Value {
	return slog.StringValue(e.String())
}
