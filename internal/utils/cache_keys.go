package utils

// BuildTaskStatsVersionKey holds the owner's current stats generation.
func BuildTaskStatsVersionKey(ownerID string) string {
	return "tasks:stats:v1:ver:owner=" + ownerID
}

func BuildTaskStatsCacheKey(ownerID, version string) string {
	return "tasks:stats:v1:owner=" + ownerID + ":gen=" + version
}
