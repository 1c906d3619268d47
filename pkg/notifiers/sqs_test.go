package notifiers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSQSNotifierSendSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	n := &sqsNotifier{
		id:       "deals_queue",
		queueURL: "https://sqs.eu-west-1.amazonaws.com/123/deals",
		client:   client,
		log:      noopLogger{},
	}

	if err := n.Notify(context.Background(), sampleDigest(time.Now())); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != n.queueURL {
		t.Fatalf("QueueUrl = %s", got)
	}

	attr, ok := client.input.MessageAttributes["new_listings"]
	if !ok || aws.ToString(attr.StringValue) != "3" {
		t.Fatalf("new_listings attribute missing or wrong: %#v", attr)
	}
	if aws.ToString(attr.DataType) != "Number" {
		t.Fatalf("DataType should be Number, got %#v", attr.DataType)
	}
	if attr, ok := client.input.MessageAttributes["failures"]; !ok || aws.ToString(attr.StringValue) != "1" {
		t.Fatalf("failures attribute missing or wrong: %#v", attr)
	}

	body := aws.ToString(client.input.MessageBody)
	if !strings.Contains(body, `"new_listings":3`) || !strings.Contains(body, `"humble_bundle"`) {
		t.Fatalf("MessageBody missing digest content: %s", body)
	}
}

func TestSQSNotifierSendError(t *testing.T) {
	n := &sqsNotifier{
		id:       "deals_queue",
		queueURL: "https://sqs.eu-west-1.amazonaws.com/123/deals",
		client:   &fakeSQSClient{err: errors.New("boom")},
		log:      noopLogger{},
	}

	if err := n.Notify(context.Background(), sampleDigest(time.Now())); err == nil {
		t.Fatalf("expected error from Notify")
	}
}
