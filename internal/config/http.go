package config

const (
	HCType          = "Content-Type"
	HAuthorization  = "Authorization"
	HAccept         = "Accept"
	HRequestID      = "X-Request-ID"
	HAcceptEncoding = "Accept-Encoding"

	CTypeJSON = "application/json"
	CTypeHTML = "text/html"
)

const (
	EnvToken          = "ARCHIVE_TOKEN"
	EnvClerkSecretKey = "CLERK_SECRET_KEY"
	EnvS3AccessKeyID  = "S3_ACCESS_KEY_ID"
	EnvS3SecretKey    = "S3_SECRET_ACCESS_KEY"
	EnvRabbitMQURL    = "RABBITMQ_URL"
)
