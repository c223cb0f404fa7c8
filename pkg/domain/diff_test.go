package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	user := NewUserMessage("plot GDP")
	research := NewAssistantMessage("researcher", "here is the data")
	chart := NewAssistantMessage("chart_generator", "done")

	tests := []struct {
		name string
		old  Conversation
		new  Conversation
		want []Message
	}{
		{
			name: "Initial Load (Old is Empty)",
			old:  Conversation{},
			new:  NewConversation(user),
			want: []Message{user},
		},
		{
			name: "No Changes",
			old:  NewConversation(user),
			new:  NewConversation(user),
			want: nil,
		},
		{
			name: "Append",
			old:  NewConversation(user),
			new:  NewConversation(user, research, chart),
			want: []Message{research, chart},
		},
		{
			name: "Rewrite Is Not A Diff",
			old:  NewConversation(user, research),
			new:  NewConversation(user, chart, research),
			want: nil,
		},
		{
			name: "Shrink Is Not A Diff",
			old:  NewConversation(user, research),
			new:  NewConversation(user),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Diff() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConversationJSONSerialization(t *testing.T) {
	t.Run("Encodes As Array", func(t *testing.T) {
		conv := NewConversation(NewUserMessage("hi"), NewAssistantMessage("researcher", "hello"))
		bytes, err := json.Marshal(conv)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if !strings.HasPrefix(string(bytes), "[") {
			t.Errorf("expected JSON array, got: %s", string(bytes))
		}
		if !strings.Contains(string(bytes), `"name":"researcher"`) {
			t.Errorf("expected author name in JSON, got: %s", string(bytes))
		}
	})

	t.Run("Omits Empty Name", func(t *testing.T) {
		bytes, _ := json.Marshal(NewUserMessage("hi"))
		if strings.Contains(string(bytes), `"name"`) {
			t.Errorf("JSON should not contain 'name' when empty, got: %s", string(bytes))
		}
	})

	t.Run("Round Trip", func(t *testing.T) {
		conv := NewConversation(NewUserMessage("hi"), NewAssistantMessage("chart_generator", "ok"))
		bytes, _ := json.Marshal(conv)

		var decoded Conversation
		if err := json.Unmarshal(bytes, &decoded); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if !reflect.DeepEqual(decoded.Messages(), conv.Messages()) {
			t.Errorf("decoded = %v, want %v", decoded.Messages(), conv.Messages())
		}
	})
}
