package cache

import "fmt"

func GrantDecisionKey(token string) string {
	return fmt.Sprintf("grant:valid:%s", token)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
