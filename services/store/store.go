// Package store keeps the bounded working set of programs and episodes
// so that the surrogate ids handed to players stay resolvable between
// the search call and the comment call.
package store

import (
	"log"
	"sync"

	"barrage/models"
)

// FirstEpisodeID is the lowest surrogate episode id ever issued. Ids
// below it can never be valid, which keeps them distinguishable from
// upstream numeric ids.
const FirstEpisodeID = 10001

type programKey struct {
	provider models.ProviderTag
	id       int64
}

// Episode is one stored play link, resolvable by its surrogate id.
type Episode struct {
	ID        int
	RemoteRef string
	Provider  models.ProviderTag
	AnimeID   int64
	Title     string
	Label     string
	Number    string
}

// Store is a mutex-guarded FIFO map pair. Insertions are idempotent:
// programs by (provider, programId), episodes by remote reference.
// When a program is evicted its episodes go with it.
type Store struct {
	mu sync.Mutex

	programCap int
	episodeCap int

	programs     map[programKey]models.SearchResult
	programOrder []programKey

	nextEpisodeID int
	episodes      map[int]Episode
	episodeByRef  map[string]int
	episodeOrder  []int
}

func New(programCap, episodeCap int) *Store {
	if programCap <= 0 {
		programCap = 100
	}
	if episodeCap <= 0 {
		episodeCap = 1000
	}
	return &Store{
		programCap:    programCap,
		episodeCap:    episodeCap,
		programs:      make(map[programKey]models.SearchResult),
		nextEpisodeID: FirstEpisodeID,
		episodes:      make(map[int]Episode),
		episodeByRef:  make(map[string]int),
	}
}

// PutProgram records a search result. A result already present keeps its
// place in the eviction queue; a new one may push the oldest program and
// its episodes out.
func (s *Store) PutProgram(r models.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := programKey{r.Provider, r.ProgramID}
	if _, exists := s.programs[key]; exists {
		s.programs[key] = r
		return
	}

	for len(s.programOrder) >= s.programCap {
		s.evictOldestProgramLocked()
	}
	s.programs[key] = r
	s.programOrder = append(s.programOrder, key)
}

// PutEpisode records a play link under its program and returns the
// surrogate id. The same remote reference always maps to the same id
// until evicted.
func (s *Store) PutEpisode(r models.SearchResult, link models.PlayLink) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, exists := s.episodeByRef[link.RemoteRef]; exists {
		return id
	}

	for len(s.episodeOrder) >= s.episodeCap {
		s.evictEpisodeLocked(s.episodeOrder[0])
	}

	id := s.nextEpisodeID
	s.nextEpisodeID++
	s.episodes[id] = Episode{
		ID:        id,
		RemoteRef: link.RemoteRef,
		Provider:  r.Provider,
		AnimeID:   r.ProgramID,
		Title:     r.Title,
		Label:     link.Label,
		Number:    link.Episode,
	}
	s.episodeByRef[link.RemoteRef] = id
	s.episodeOrder = append(s.episodeOrder, id)
	return id
}

// Program looks a stored program up by its public numeric id.
func (s *Store) Program(animeID int64) (models.SearchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.programOrder {
		if key.id == animeID {
			return s.programs[key], true
		}
	}
	return models.SearchResult{}, false
}

// Episode resolves a surrogate id.
func (s *Store) Episode(id int) (Episode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ep, ok := s.episodes[id]
	return ep, ok
}

// EpisodesOf lists the stored episodes for a program in insertion order.
func (s *Store) EpisodesOf(animeID int64) []Episode {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Episode
	for _, id := range s.episodeOrder {
		if ep := s.episodes[id]; ep.AnimeID == animeID {
			out = append(out, ep)
		}
	}
	return out
}

// Clear wipes both maps. Surrogate id numbering keeps climbing so stale
// ids held by players cannot silently resolve to new episodes.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs = make(map[programKey]models.SearchResult)
	s.programOrder = nil
	s.episodes = make(map[int]Episode)
	s.episodeByRef = make(map[string]int)
	s.episodeOrder = nil
}

// Stats reports the current occupancy.
func (s *Store) Stats() (programs, episodes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.programOrder), len(s.episodeOrder)
}

func (s *Store) evictOldestProgramLocked() {
	if len(s.programOrder) == 0 {
		return
	}
	key := s.programOrder[0]
	s.programOrder = s.programOrder[1:]
	prog := s.programs[key]
	delete(s.programs, key)

	// cascade: drop the evicted program's episodes
	kept := s.episodeOrder[:0]
	removed := 0
	for _, id := range s.episodeOrder {
		ep := s.episodes[id]
		if ep.Provider == key.provider && ep.AnimeID == key.id {
			delete(s.episodes, id)
			delete(s.episodeByRef, ep.RemoteRef)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.episodeOrder = kept
	log.Printf("[store] evicted program %q (%s), %d episodes cascaded", prog.Title, key.provider, removed)
}

func (s *Store) evictEpisodeLocked(id int) {
	ep, ok := s.episodes[id]
	if !ok {
		return
	}
	delete(s.episodes, id)
	delete(s.episodeByRef, ep.RemoteRef)
	for i, other := range s.episodeOrder {
		if other == id {
			s.episodeOrder = append(s.episodeOrder[:i], s.episodeOrder[i+1:]...)
			break
		}
	}
}
