package history_test

import (
	"testing"

	"github.com/zhouzirui/mood-story/backend/internal/model/story"
	"github.com/zhouzirui/mood-story/backend/internal/service/history"
)

func TestHistoryOrdering(t *testing.T) {
	h := history.New()
	h.Append(story.Record{Input: "a"})
	h.Append(story.Record{Input: "b"})

	all := h.All()
	if len(all) != 2 || all[0].Input != "a" || all[1].Input != "b" {
		t.Fatalf("unexpected insertion order: %+v", all)
	}

	newest := h.Newest()
	if newest[0].Input != "b" || newest[1].Input != "a" {
		t.Fatalf("unexpected display order: %+v", newest)
	}
}

func TestHistoryAllReturnsCopy(t *testing.T) {
	h := history.New()
	h.Append(story.Record{Input: "original"})

	all := h.All()
	all[0].Input = "mutated"

	if got := h.All()[0].Input; got != "original" {
		t.Fatalf("history mutated through copy: %s", got)
	}
}

func TestHistoryClear(t *testing.T) {
	h := history.New()
	for i := 0; i < 5; i++ {
		h.Append(story.Record{Input: "x"})
	}
	h.Clear()

	if h.Len() != 0 || len(h.All()) != 0 {
		t.Fatalf("expected empty history after clear, got %d", h.Len())
	}

	h.Clear()
	if h.Len() != 0 {
		t.Fatal("clearing an empty history should keep it empty")
	}
}

func TestHistoryKeepsDuplicates(t *testing.T) {
	h := history.New()
	rec := story.Record{Input: "same"}
	h.Append(rec)
	h.Append(rec)

	if h.Len() != 2 {
		t.Fatalf("expected duplicates to be kept, got %d", h.Len())
	}
}
