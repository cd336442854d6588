package core

import "testing"

func TestSession_AppendAndHistory(t *testing.T) {
	s := NewSession("s1")
	s.Append(UserMessage("hi"), AssistantMessage("hello"))

	history := s.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}

	history[0].Content = "changed"
	if s.History()[0].Content != "hi" {
		t.Error("history slice should be copied on read")
	}
}

func TestSession_Clone(t *testing.T) {
	s := NewSession("s2")
	s.Append(UserMessage("hi"))

	clone := s.Clone()
	if clone == s {
		t.Fatal("Clone should be a different pointer")
	}

	clone.Append(AssistantMessage("hello"))
	if len(s.History()) != 1 {
		t.Error("original should not see clone's appended message")
	}
}
