package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Wizard draft snapshots are written here, one file per user.
	DataDir string `envconfig:"DATA_DIR" default:".zipli"`

	// Supabase Auth + Storage
	SupabaseProjectRef string `envconfig:"SUPABASE_PROJECT_REF"`
	SupabaseAnonKey    string `envconfig:"SUPABASE_ANON_KEY"`
	StorageBucketName  string `envconfig:"STORAGE_BUCKET_NAME" default:"donation-images"`

	// When set, requests are authenticated as this user without a token.
	// Local development only; serve refuses it outside development.
	DevUserID string `envconfig:"DEV_USER_ID"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
}
