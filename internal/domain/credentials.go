package domain

import "time"

// Credentials is a temporary AWS access key triple issued for an instance role.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// Expiration is reported by the metadata service but never acted upon;
	// credentials are fetched once and live for the process lifetime.
	Expiration time.Time
}
