package config

import "sync"

var (
	minioOnce   sync.Once
	minioConfig *MinioConfig
)

type MinioConfig struct {
	AccessKey  string
	SecretKey  string
	Endpoint   string
	UseSSL     bool
	Region     string
	BucketName string
}

func GetMinioConfig() *MinioConfig {
	minioOnce.Do(func() {
		loadDotEnv()
		minioConfig = LoadMinioConfig(osLookup)
	})
	return minioConfig
}

// LoadMinioConfig reads the MINIO_* variables.
func LoadMinioConfig(env Lookup) *MinioConfig {
	return &MinioConfig{
		AccessKey:  env("MINIO_ACCESS_KEY"),
		SecretKey:  env("MINIO_SECRET_KEY"),
		Endpoint:   env("MINIO_ENDPOINT"),
		UseSSL:     envBool(env, "MINIO_USE_SSL", false),
		Region:     env("MINIO_REGION"),
		BucketName: envString(env, "MINIO_BUCKET_NAME", "correspondencia"),
	}
}
