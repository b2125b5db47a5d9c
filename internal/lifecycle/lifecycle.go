// Package lifecycle builds the bucket retention document applied to the
// supervised server through the storage API. Day counts map onto the
// storage API's lifecycle rule elements; zero-valued fields leave the
// matching element out of the rendered rule.
package lifecycle

import (
	"encoding/xml"
	"errors"
	"fmt"

	lc "github.com/minio/minio-go/v7/pkg/lifecycle"
)

// DefaultRuleID identifies the rule the setup command manages.
const DefaultRuleID = "minio-warden-retention"

// ruleStatusEnabled is the only rule status the warden ever writes.
const ruleStatusEnabled = "Enabled"

// Default retention in days.
const (
	DefaultExpirationDays        = 30
	DefaultNoncurrentVersionDays = 7
	DefaultAbortMultipartDays    = 7
)

var (
	errNoRetentionElements = errors.New("retention policy enables no elements")
	errNegativeDays        = errors.New("retention day counts must not be negative")
)

// Policy describes bucket retention in whole days.
type Policy struct {
	// RuleID identifies the rule inside the bucket configuration.
	// Empty selects DefaultRuleID.
	RuleID string
	// Prefix limits the rule to objects under this key prefix.
	// Empty applies the rule to the whole bucket.
	Prefix string
	// ExpirationDays removes current objects this many days after creation.
	ExpirationDays int
	// NoncurrentVersionDays removes noncurrent object versions this many
	// days after they lose currency.
	NoncurrentVersionDays int
	// AbortMultipartDays cleans up incomplete multipart uploads this many
	// days after initiation.
	AbortMultipartDays int
}

// DefaultPolicy returns the retention applied when the caller does not
// override any day count.
func DefaultPolicy() Policy {
	return Policy{
		RuleID:                DefaultRuleID,
		ExpirationDays:        DefaultExpirationDays,
		NoncurrentVersionDays: DefaultNoncurrentVersionDays,
		AbortMultipartDays:    DefaultAbortMultipartDays,
	}
}

// Validate rejects policies that would render an empty or invalid rule.
func (p Policy) Validate() error {
	if p.ExpirationDays < 0 || p.NoncurrentVersionDays < 0 || p.AbortMultipartDays < 0 {
		return errNegativeDays
	}

	if p.ExpirationDays == 0 && p.NoncurrentVersionDays == 0 && p.AbortMultipartDays == 0 {
		return errNoRetentionElements
	}

	return nil
}

// Build assembles the storage-API lifecycle configuration for the policy.
func Build(p Policy) (*lc.Configuration, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("validate retention policy: %w", err)
	}

	rule := lc.Rule{
		ID:     p.RuleID,
		Status: ruleStatusEnabled,
	}
	if rule.ID == "" {
		rule.ID = DefaultRuleID
	}

	if p.Prefix != "" {
		rule.RuleFilter = lc.Filter{Prefix: p.Prefix}
	}

	if p.ExpirationDays > 0 {
		rule.Expiration = lc.Expiration{Days: lc.ExpirationDays(p.ExpirationDays)}
	}

	if p.NoncurrentVersionDays > 0 {
		rule.NoncurrentVersionExpiration = lc.NoncurrentVersionExpiration{
			NoncurrentDays: lc.ExpirationDays(p.NoncurrentVersionDays),
		}
	}

	if p.AbortMultipartDays > 0 {
		rule.AbortIncompleteMultipartUpload = lc.AbortIncompleteMultipartUpload{
			DaysAfterInitiation: lc.ExpirationDays(p.AbortMultipartDays),
		}
	}

	configuration := lc.NewConfiguration()
	configuration.Rules = append(configuration.Rules, rule)

	return configuration, nil
}

// RenderXML returns the policy's configuration as an indented XML document,
// suitable for logging or for review before it is applied.
func RenderXML(p Policy) (string, error) {
	configuration, err := Build(p)
	if err != nil {
		return "", err
	}

	data, err := xml.MarshalIndent(configuration, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode lifecycle document: %w", err)
	}

	return string(data), nil
}
