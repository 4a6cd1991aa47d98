package config

import "sync"

var (
	textractOnce   sync.Once
	textractConfig *TextractConfig
)

// TextractConfig shares the AWS credentials with S3 unless TEXTRACT_REGION
// points elsewhere.
type TextractConfig struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

func GetTextractConfig() *TextractConfig {
	textractOnce.Do(func() {
		loadDotEnv()
		textractConfig = LoadTextractConfig(osLookup)
	})
	return textractConfig
}

func LoadTextractConfig(env Lookup) *TextractConfig {
	return &TextractConfig{
		Region:    envString(env, "TEXTRACT_REGION", envString(env, "AWS_REGION", "us-east-1")),
		Endpoint:  env("AWS_ENDPOINT"),
		AccessKey: env("AWS_ACCESS_KEY"),
		SecretKey: env("AWS_SECRET_KEY"),
	}
}
