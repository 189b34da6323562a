package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"go.uber.org/multierr"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/repairops-backend/pkg/config"
	"github.com/angelmondragon/repairops-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoTopics          = errors.New("at least one pubsub topic must be configured")
	errNotConnected      = errors.New("pubsub client not initialized")
)

// Client owns the Pub/Sub connection and the fully qualified names of the
// topics the outbox publishes to.
type Client struct {
	client  *pubsub.Client
	project string
	topics  []string
	// lookup checks a fully qualified topic exists.
	lookup func(ctx context.Context, topic string) error
}

// NewClient connects to Pub/Sub (or the emulator named by PUBSUB_EMULATOR_HOST)
// and refuses to start while a configured topic is missing.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	if project == "" {
		return nil, errProjectIDRequired
	}
	topics := qualifiedTopics(project, cfg.QuotationsTopic, cfg.PendenciesTopic)
	if len(topics) == 0 {
		return nil, errNoTopics
	}

	conn, err := pubsub.NewClient(ctx, project, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	c := &Client{
		client:  conn,
		project: project,
		topics:  topics,
		lookup: func(ctx context.Context, topic string) error {
			_, err := conn.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topic})
			return err
		},
	}
	if err := c.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "topics", topics), "pubsub client initialized")
	}
	return c, nil
}

// Ping reports every configured topic that cannot be found.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.lookup == nil {
		return errNotConnected
	}
	var errs error
	for _, topic := range c.topics {
		err := c.lookup(ctx, topic)
		switch {
		case err == nil:
		case status.Code(err) == codes.NotFound:
			errs = multierr.Append(errs, fmt.Errorf("topic %s does not exist", topic))
		default:
			errs = multierr.Append(errs, fmt.Errorf("checking topic %s: %w", topic, err))
		}
	}
	return errs
}

// Publisher returns a handle for topic, which may be a short id or a full
// resource name. Callers own the returned publisher and must Stop it.
func (c *Client) Publisher(topic string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	name := qualify(c.project, topic)
	if name == "" {
		return nil
	}
	return c.client.Publisher(name)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	}
	return nil
}

func qualifiedTopics(project string, topics ...string) []string {
	out := make([]string, 0, len(topics))
	for _, topic := range topics {
		if name := qualify(project, topic); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// qualify expands a short topic id to projects/<project>/topics/<id>.
func qualify(project, topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ""
	}
	if strings.HasPrefix(topic, "projects/") && strings.Contains(topic, "/topics/") {
		return topic
	}
	if project = strings.TrimSpace(project); project == "" {
		return ""
	}
	return "projects/" + project + "/topics/" + topic
}
