package store

import (
	"fmt"
	"testing"

	"barrage/models"
)

func program(id int64, title string) models.SearchResult {
	return models.SearchResult{Provider: models.Provider360Kan, ProgramID: id, Title: title}
}

func link(ref string) models.PlayLink {
	return models.PlayLink{Label: "第1集", RemoteRef: ref}
}

func TestEpisodeIDsStartAt10001(t *testing.T) {
	s := New(10, 10)
	prog := program(1, "a")
	s.PutProgram(prog)
	if id := s.PutEpisode(prog, link("https://e/1")); id != 10001 {
		t.Errorf("first episode id = %d, want 10001", id)
	}
	if id := s.PutEpisode(prog, link("https://e/2")); id != 10002 {
		t.Errorf("second episode id = %d, want 10002", id)
	}
}

func TestPutEpisodeIdempotent(t *testing.T) {
	s := New(10, 10)
	prog := program(1, "a")
	s.PutProgram(prog)

	first := s.PutEpisode(prog, link("https://e/1"))
	if again := s.PutEpisode(prog, link("https://e/1")); again != first {
		t.Errorf("same ref got new id: %d vs %d", again, first)
	}
	if _, episodes := s.Stats(); episodes != 1 {
		t.Errorf("expected 1 episode, got %d", episodes)
	}
}

func TestPutProgramIdempotent(t *testing.T) {
	s := New(2, 10)
	s.PutProgram(program(1, "a"))
	s.PutProgram(program(1, "a updated"))
	s.PutProgram(program(2, "b"))

	if programs, _ := s.Stats(); programs != 2 {
		t.Errorf("expected 2 programs, got %d", programs)
	}
	got, ok := s.Program(1)
	if !ok || got.Title != "a updated" {
		t.Errorf("re-put did not update: %+v", got)
	}

	// same id under a different provider is a different program
	s.PutProgram(models.SearchResult{Provider: models.ProviderVod, ProgramID: 1, Title: "other"})
	if programs, _ := s.Stats(); programs != 2 {
		t.Errorf("expected eviction to keep capacity at 2, got %d", programs)
	}
}

func TestProgramFIFOEviction(t *testing.T) {
	s := New(3, 100)
	for i := int64(1); i <= 4; i++ {
		s.PutProgram(program(i, fmt.Sprintf("p%d", i)))
	}
	if _, ok := s.Program(1); ok {
		t.Error("oldest program should be evicted")
	}
	for i := int64(2); i <= 4; i++ {
		if _, ok := s.Program(i); !ok {
			t.Errorf("program %d should survive", i)
		}
	}
}

func TestProgramEvictionCascadesEpisodes(t *testing.T) {
	s := New(1, 100)
	first := program(1, "first")
	s.PutProgram(first)
	id := s.PutEpisode(first, link("https://e/1"))

	s.PutProgram(program(2, "second")) // evicts "first"

	if _, ok := s.Episode(id); ok {
		t.Error("evicted program's episode should be gone")
	}
	// the freed reference gets a fresh id on re-insert
	s.PutProgram(first) // evicts "second"
	if again := s.PutEpisode(first, link("https://e/1")); again == id {
		t.Error("re-inserted episode should not reuse the old id")
	}
}

func TestEpisodeFIFOEviction(t *testing.T) {
	s := New(10, 2)
	prog := program(1, "a")
	s.PutProgram(prog)

	first := s.PutEpisode(prog, link("https://e/1"))
	s.PutEpisode(prog, link("https://e/2"))
	s.PutEpisode(prog, link("https://e/3"))

	if _, ok := s.Episode(first); ok {
		t.Error("oldest episode should be evicted")
	}
	if _, episodes := s.Stats(); episodes != 2 {
		t.Errorf("expected 2 episodes, got %d", episodes)
	}
}

func TestClear(t *testing.T) {
	s := New(10, 10)
	prog := program(1, "a")
	s.PutProgram(prog)
	before := s.PutEpisode(prog, link("https://e/1"))

	s.Clear()
	programs, episodes := s.Stats()
	if programs != 0 || episodes != 0 {
		t.Errorf("clear left %d programs %d episodes", programs, episodes)
	}

	// id numbering continues after a wipe
	s.PutProgram(prog)
	if after := s.PutEpisode(prog, link("https://e/1")); after <= before {
		t.Errorf("id numbering restarted: %d after %d", after, before)
	}
}

func TestEpisodesOfOrder(t *testing.T) {
	s := New(10, 10)
	prog := program(1, "a")
	other := program(2, "b")
	s.PutProgram(prog)
	s.PutProgram(other)
	s.PutEpisode(prog, link("https://e/1"))
	s.PutEpisode(other, link("https://e/x"))
	s.PutEpisode(prog, link("https://e/2"))

	eps := s.EpisodesOf(1)
	if len(eps) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(eps))
	}
	if eps[0].RemoteRef != "https://e/1" || eps[1].RemoteRef != "https://e/2" {
		t.Errorf("wrong order: %+v", eps)
	}
}
