package id

import (
	"strconv"

	foxuuid "github.com/fox-one/pkg/uuid"
	"github.com/gofrs/uuid"
)

// GenTraceID new random trace id
func GenTraceID() string {
	return uuid.Must(uuid.NewV4()).String()
}

// EventTraceID trace id of the i-th event produced under traceID, stable
// for the same pair
func EventTraceID(traceID string, i int) string {
	return foxuuid.Modify(traceID, "event-"+strconv.Itoa(i))
}
