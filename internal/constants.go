package internal

const (
	COOKIE_ACCESS_TOKEN_NAME = "zipli_access_token"
	COOKIE_REDIRECT_NAME     = "zipli_redirect"
)
