package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

type request struct {
	RequestedBy string `json:"requested_by"`
}

func TestTypedMessageHandler(t *testing.T) {
	var got []string
	h := &TypedMessageHandler[request]{
		Validate: func(msg *request) bool { return msg.RequestedBy != "" },
		Process: func(_ context.Context, msg *request) error {
			if msg.RequestedBy == "fail" {
				return errors.New("boom")
			}
			got = append(got, msg.RequestedBy)
			return nil
		},
		AlwaysMark: true,
	}

	cases := []struct {
		name     string
		body     string
		wantMark bool
		wantErr  bool
	}{
		{"valid", `{"requested_by":"cron"}`, true, false},
		{"bad json", `{not json`, true, false},
		{"invalid", `{"requested_by":""}`, true, false},
		{"process error", `{"requested_by":"fail"}`, false, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mark, err := h.HandleMessage(context.Background(), []byte(c.body))
			if mark != c.wantMark {
				t.Fatalf("mark = %v, want %v", mark, c.wantMark)
			}
			if (err != nil) != c.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
	if len(got) != 1 || got[0] != "cron" {
		t.Fatalf("unexpected processed messages %v", got)
	}
}

func TestTypedMessageHandlerWithoutAlwaysMark(t *testing.T) {
	h := &TypedMessageHandler[request]{
		Process: func(context.Context, *request) error { return nil },
	}
	if mark, _ := h.HandleMessage(context.Background(), []byte("nope")); mark {
		t.Fatal("undecodable message must not be marked without AlwaysMark")
	}
}

func TestProducerPublishJSON(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var r request
		if err := json.Unmarshal(val, &r); err != nil {
			return err
		}
		if r.RequestedBy != "cli" {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})

	p := NewProducerFrom(mp, "newsshorts.runs")
	if _, _, err := p.PublishJSON("run", request{RequestedBy: "cli"}); err != nil {
		t.Fatalf("PublishJSON: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestProducerSendFailure(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewProducerFrom(mp, "t")
	if _, _, err := p.PublishJSON("", request{}); !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers, got %v", err)
	}
	mp.Close()
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	if _, err := NewConsumer(ConsumerConfig{Topic: "t"}); err == nil {
		t.Fatal("expected error without brokers")
	}
}
