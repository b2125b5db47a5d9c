package admin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/minio-warden/internal/config"
)

func TestStepsFullSequence(t *testing.T) {
	t.Parallel()

	plan := &Provision{
		Alias:           "warden",
		EndpointURL:     "http://127.0.0.1:9000",
		Bucket:          "media",
		ServiceUser:     "app",
		ServicePassword: "app-secret",
		PolicyName:      "media-readwrite",
		PolicyPath:      "/tmp/media-readwrite.json",
		ConfigDir:       "/tmp/mc-config",
	}

	root := &config.Credentials{RootUser: "minioadmin", RootPassword: "minioadmin"}

	steps := plan.Steps(root)
	require.Len(t, steps, 5)

	require.Equal(t, "set-alias", steps[0].Name)
	require.Equal(t,
		[]string{"--config-dir", "/tmp/mc-config", "alias", "set", "warden",
			"http://127.0.0.1:9000", "minioadmin", "minioadmin"},
		steps[0].Args)

	require.Equal(t, "make-bucket", steps[1].Name)
	require.Equal(t,
		[]string{"--config-dir", "/tmp/mc-config", "mb", "--ignore-existing", "warden/media"},
		steps[1].Args)

	require.Equal(t, "add-user", steps[2].Name)
	require.Equal(t,
		[]string{"--config-dir", "/tmp/mc-config", "admin", "user", "add", "warden", "app", "app-secret"},
		steps[2].Args)

	require.Equal(t, "create-policy", steps[3].Name)
	require.Equal(t,
		[]string{"--config-dir", "/tmp/mc-config", "admin", "policy", "create", "warden",
			"media-readwrite", "/tmp/media-readwrite.json"},
		steps[3].Args)

	require.Equal(t, "attach-policy", steps[4].Name)
	require.Equal(t,
		[]string{"--config-dir", "/tmp/mc-config", "admin", "policy", "attach", "warden",
			"media-readwrite", "--user", "app"},
		steps[4].Args)
}

func TestStepsWithoutServiceUser(t *testing.T) {
	t.Parallel()

	plan := &Provision{
		Alias:       "warden",
		EndpointURL: "http://127.0.0.1:9000",
		Bucket:      "media",
		ConfigDir:   "/tmp/mc-config",
	}

	steps := plan.Steps(&config.Credentials{RootUser: "u", RootPassword: "p"})
	require.Len(t, steps, 2)
	require.Equal(t, "set-alias", steps[0].Name)
	require.Equal(t, "make-bucket", steps[1].Name)
}

func TestPolicyDocument(t *testing.T) {
	t.Parallel()

	data, err := PolicyDocument("media")
	require.NoError(t, err)

	var document policyDocument
	require.NoError(t, json.Unmarshal(data, &document))

	require.Equal(t, "2012-10-17", document.Version)
	require.Len(t, document.Statement, 1)
	require.Equal(t, "Allow", document.Statement[0].Effect)
	require.Equal(t, []string{"s3:*"}, document.Statement[0].Action)
	require.Equal(t,
		[]string{"arn:aws:s3:::media", "arn:aws:s3:::media/*"},
		document.Statement[0].Resource)
}
