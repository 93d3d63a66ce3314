package s3

// Config is read from the environment with config.Load.
// AccessKeyID and SecretKey are optional; the default AWS credential
// chain is used when either is empty.
type Config struct {
	Bucket         string `env:"S3_BUCKET"`
	Region         string `env:"S3_REGION" envDefault:"us-east-1"`
	Prefix         string `env:"S3_PREFIX"`
	AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"S3_SECRET_KEY"`
	Endpoint       string `env:"S3_ENDPOINT"`
	ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
	MaxObjectSize  int64  `env:"S3_MAX_OBJECT_SIZE" envDefault:"16777216"`
}
