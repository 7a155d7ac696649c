package point

import "github.com/google/uuid"

// namespace is fixed for the lifetime of the index; changing it orphans every point.
var namespace = uuid.NameSpaceDNS

// ID derives the vector point id from a catalog native id (UUIDv5).
// The same native id always yields the same point id.
func ID(nativeID string) string {
	return uuid.NewSHA1(namespace, []byte(nativeID)).String()
}
