package cache

import "hash/fnv"

// StatementKey hashes statement text into a cache key (FNV-1a).
func StatementKey(sql string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(sql))
	return h.Sum64()
}
