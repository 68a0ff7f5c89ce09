package config

// DefaultCacheDBPath is where resolved definitions are cached between runs.
const DefaultCacheDBPath = "./kindledeck-cache.db"
