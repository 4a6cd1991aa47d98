package config

import "sync"

var (
	s3Once   sync.Once
	s3Config *S3Config
)

type S3Config struct {
	BucketName string
	Region     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
}

func GetS3Config() *S3Config {
	s3Once.Do(func() {
		loadDotEnv()
		s3Config = LoadS3Config(osLookup)
	})
	return s3Config
}

func LoadS3Config(env Lookup) *S3Config {
	return &S3Config{
		BucketName: env("AWS_S3_BUCKET_NAME"),
		Region:     envString(env, "AWS_REGION", "us-east-1"),
		Endpoint:   env("AWS_ENDPOINT"),
		AccessKey:  env("AWS_ACCESS_KEY"),
		SecretKey:  env("AWS_SECRET_KEY"),
	}
}
