package config

// StorageConfig selects where uploaded media and generated QR images live.
// Backend "local" writes under LocalDir; "s3" talks to any S3 compatible
// endpoint (AWS, MinIO).
type StorageConfig struct {
	Backend      string
	LocalDir     string
	S3Bucket     string
	S3Region     string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	MaxUploadMB  int
	MediaURLBase string // prefix used when building public media URLs
}

func LoadStorageConfig() StorageConfig {
	return StorageConfig{
		Backend:      envStr("STORAGE_BACKEND", "local"),
		LocalDir:     envStr("STORAGE_LOCAL_DIR", "media"),
		S3Bucket:     envStr("S3_BUCKET", ""),
		S3Region:     envStr("S3_REGION", "us-east-1"),
		S3Endpoint:   envStr("S3_ENDPOINT", ""),
		S3AccessKey:  envStr("S3_ACCESS_KEY", ""),
		S3SecretKey:  envStr("S3_SECRET_KEY", ""),
		MaxUploadMB:  envInt("MAX_UPLOAD_MB", 50),
		MediaURLBase: envStr("MEDIA_URL_BASE", "/v1/media"),
	}
}
