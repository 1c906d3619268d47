package notifiers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-456")}, nil
}

func TestSNSNotifierPublishSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	n := &snsNotifier{
		id:       "deals_topic",
		topicARN: "arn:aws:sns:eu-west-1:123:deals",
		client:   client,
		log:      noopLogger{},
	}

	if err := n.Notify(context.Background(), sampleDigest(time.Now())); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != n.topicARN {
		t.Fatalf("TopicArn = %s", got)
	}

	attr, ok := client.input.MessageAttributes["new_listings"]
	if !ok || aws.ToString(attr.StringValue) != "3" {
		t.Fatalf("new_listings attribute missing or wrong: %#v", attr)
	}
	if attr, ok := client.input.MessageAttributes["failures"]; !ok || aws.ToString(attr.StringValue) != "1" {
		t.Fatalf("failures attribute missing or wrong: %#v", attr)
	}

	msg := aws.ToString(client.input.Message)
	if !strings.Contains(msg, `"fanatical"`) {
		t.Fatalf("Message missing digest content: %s", msg)
	}
}

func TestSNSNotifierPublishError(t *testing.T) {
	n := &snsNotifier{
		id:       "deals_topic",
		topicARN: "arn:aws:sns:eu-west-1:123:deals",
		client:   &fakeSNSClient{err: errors.New("boom")},
		log:      noopLogger{},
	}

	if err := n.Notify(context.Background(), sampleDigest(time.Now())); err == nil {
		t.Fatalf("expected error from Notify")
	}
}
