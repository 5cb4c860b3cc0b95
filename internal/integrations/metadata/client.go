// Package metadata fetches temporary role credentials from the EC2 instance
// metadata service using the token-based (IMDSv2) access protocol.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"cloud-lab/internal/domain"
)

const (
	credentialsPath = "iam/security-credentials/"
	tokenPath       = "/latest/api/token"
	tokenTTLHeader  = "X-Aws-Ec2-Metadata-Token-Ttl-Seconds"

	// TokenTTL is the lifetime requested for metadata session tokens.
	TokenTTL = 21600 * time.Second
)

// metadataAPI is the minimal IMDS interface required by Client.
// *imds.Client from aws-sdk-go-v2 satisfies this interface.
type metadataAPI interface {
	GetMetadata(ctx context.Context, in *imds.GetMetadataInput, optFns ...func(*imds.Options)) (*imds.GetMetadataOutput, error)
}

// roleCredentials is the JSON document served for an instance role.
type roleCredentials struct {
	Code            string `json:"Code"`
	AccessKeyID     string `json:"AccessKeyId"`
	SecretAccessKey string `json:"SecretAccessKey"`
	Token           string `json:"Token"`
	Expiration      string `json:"Expiration"`
}

// Client resolves the credentials of one instance role.
type Client struct {
	api      metadataAPI
	roleName string
}

// New creates a Client for roleName backed by the given IMDS API.
func New(api metadataAPI, roleName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("metadata: api must not be nil")
	}
	roleName = strings.Trim(strings.TrimSpace(roleName), "/")
	if roleName == "" {
		return nil, errors.New("metadata: role name must not be empty")
	}
	return &Client{api: api, roleName: roleName}, nil
}

// NewIMDS builds an IMDS client that makes exactly one attempt per call and
// never downgrades to the tokenless protocol. An empty endpoint selects the
// well-known link-local address. Session tokens are requested with TokenTTL.
func NewIMDS(endpoint string) *imds.Client {
	return imds.New(imds.Options{
		Endpoint:       strings.TrimSpace(endpoint),
		Retryer:        aws.NopRetryer{},
		EnableFallback: aws.FalseTernary,
		APIOptions:     []func(*middleware.Stack) error{withTokenTTL(TokenTTL)},
	})
}

// withTokenTTL overrides the TTL the SDK puts on its token request, which
// defaults to five minutes.
func withTokenTTL(ttl time.Duration) func(*middleware.Stack) error {
	ttlValue := strconv.FormatInt(int64(ttl/time.Second), 10)
	return func(stack *middleware.Stack) error {
		return stack.Build.Add(middleware.BuildMiddlewareFunc("metadataTokenTTL",
			func(ctx context.Context, in middleware.BuildInput, next middleware.BuildHandler) (middleware.BuildOutput, middleware.Metadata, error) {
				if req, ok := in.Request.(*smithyhttp.Request); ok &&
					req.Method == http.MethodPut && strings.HasSuffix(req.URL.Path, tokenPath) {
					req.Header.Set(tokenTTLHeader, ttlValue)
				}
				return next.HandleBuild(ctx, in)
			}), middleware.After)
	}
}

// Fetch requests a metadata session token, then reads and parses the role's
// temporary credentials. It is meant to be called once at process start.
func (c *Client) Fetch(ctx context.Context) (domain.Credentials, error) {
	out, err := c.api.GetMetadata(ctx, &imds.GetMetadataInput{Path: credentialsPath + c.roleName})
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("metadata: get credentials for role %q: %w", c.roleName, err)
	}
	if out == nil || out.Content == nil {
		return domain.Credentials{}, errors.New("metadata: empty credentials response")
	}
	defer func() { _ = out.Content.Close() }()

	raw, err := io.ReadAll(io.LimitReader(out.Content, 1<<20))
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("metadata: read credentials: %w", err)
	}
	return parseCredentials(raw)
}

func parseCredentials(raw []byte) (domain.Credentials, error) {
	var rc roleCredentials
	if err := json.Unmarshal(raw, &rc); err != nil {
		return domain.Credentials{}, fmt.Errorf("metadata: decode credentials: %w", err)
	}
	if rc.Code != "" && rc.Code != "Success" {
		return domain.Credentials{}, fmt.Errorf("metadata: credentials response code %q", rc.Code)
	}

	var missing []string
	if rc.AccessKeyID == "" {
		missing = append(missing, "AccessKeyId")
	}
	if rc.SecretAccessKey == "" {
		missing = append(missing, "SecretAccessKey")
	}
	if rc.Token == "" {
		missing = append(missing, "Token")
	}
	if len(missing) > 0 {
		return domain.Credentials{}, fmt.Errorf("metadata: credentials missing %s", strings.Join(missing, ", "))
	}

	creds := domain.Credentials{
		AccessKeyID:     rc.AccessKeyID,
		SecretAccessKey: rc.SecretAccessKey,
		SessionToken:    rc.Token,
	}
	// Expiration is informational only; an unparsable value is left zero.
	if exp, err := time.Parse(time.RFC3339, rc.Expiration); err == nil {
		creds.Expiration = exp
	}
	return creds, nil
}
