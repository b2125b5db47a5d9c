package admin

import (
	"encoding/json"
	"fmt"

	"github.com/oshokin/minio-warden/internal/config"
)

// Step is one client invocation of the provisioning sequence.
type Step struct {
	// Name tags the step in logs and error messages.
	Name string
	// Args is the full client argument list.
	Args []string
}

// Provision describes everything the setup sequence creates on a freshly
// started server: the client alias, the bucket and, when a service user is
// requested, the account with a bucket-scoped access policy.
type Provision struct {
	// Alias names the server connection inside the client's alias store.
	Alias string
	// EndpointURL is the server's URL, scheme included.
	EndpointURL string
	// Bucket is created if it does not exist yet.
	Bucket string
	// ServiceUser is the application account to create.
	// Empty skips the account and policy steps.
	ServiceUser string
	// ServicePassword is the secret for ServiceUser.
	ServicePassword string
	// PolicyName names the access policy scoped to Bucket.
	PolicyName string
	// PolicyPath is where the policy document has been written.
	PolicyPath string
	// ConfigDir isolates the client's alias store from the user's own.
	ConfigDir string
}

// Steps returns the client invocations in execution order.
func (p *Provision) Steps(root *config.Credentials) []Step {
	steps := []Step{
		p.step("set-alias", "alias", "set", p.Alias, p.EndpointURL, root.RootUser, root.RootPassword),
		p.step("make-bucket", "mb", "--ignore-existing", p.Alias+"/"+p.Bucket),
	}

	if p.ServiceUser == "" {
		return steps
	}

	return append(steps,
		p.step("add-user", "admin", "user", "add", p.Alias, p.ServiceUser, p.ServicePassword),
		p.step("create-policy", "admin", "policy", "create", p.Alias, p.PolicyName, p.PolicyPath),
		p.step("attach-policy", "admin", "policy", "attach", p.Alias, p.PolicyName, "--user", p.ServiceUser),
	)
}

// step prefixes every invocation with the isolated config directory.
func (p *Provision) step(name string, args ...string) Step {
	return Step{
		Name: name,
		Args: append([]string{"--config-dir", p.ConfigDir}, args...),
	}
}

type policyStatement struct {
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource []string `json:"Resource"`
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// PolicyDocument renders an access policy granting full object access to
// the bucket and nothing else.
func PolicyDocument(bucket string) ([]byte, error) {
	document := policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Effect: "Allow",
			Action: []string{"s3:*"},
			Resource: []string{
				"arn:aws:s3:::" + bucket,
				"arn:aws:s3:::" + bucket + "/*",
			},
		}},
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode policy document: %w", err)
	}

	return data, nil
}
