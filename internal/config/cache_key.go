package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AssignmentPayloadKey returns the cache key for an assignment's sanitized
// test payload (questions without correctness keys).
func (r *CacheKeyStruct) AssignmentPayloadKey(assignmentID string) string {
	return fmt.Sprintf("assignment:%s:payload", assignmentID)
}

var CacheKey = NewCacheKeyStruct()
