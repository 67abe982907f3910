package models

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/microcosm-cc/gamecatalog/cache"
	e "github.com/microcosm-cc/gamecatalog/errors"
)

func TestVideoGameValidate(t *testing.T) {
	long := strings.Repeat("é", MaxFieldLength)

	tests := []struct {
		name  string
		m     VideoGameType
		valid bool
	}{
		{"title only", VideoGameType{Title: "Halo"}, true},
		{"publisher only", VideoGameType{Publisher: "Bungie"}, true},
		{"all blank", VideoGameType{Title: " ", Platform: "\t"}, false},
		{"empty", VideoGameType{}, false},
		{"longest title in runes", VideoGameType{Title: long}, true},
		{"title too long", VideoGameType{Title: long + "x"}, false},
		{"developer too long", VideoGameType{Title: "A", Developer: strings.Repeat("d", MaxFieldLength+1)}, false},
	}

	for _, tt := range tests {
		err := tt.m.Validate()
		if tt.valid && err != nil {
			t.Errorf("%s: Validate() = %v, want nil", tt.name, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("%s: Validate() = nil, want an error", tt.name)
		}
	}
}

func TestVideoGameMerge(t *testing.T) {
	stored := VideoGameType{
		ID:        3,
		Title:     "Halo",
		Platform:  "Xbox",
		Developer: "Bungie",
		Publisher: "Microsoft",
	}

	subset := stored.Merge(VideoGameType{ID: 99, Platform: "PC", Publisher: "Xbox Game Studios"})
	want := VideoGameType{
		ID:        3,
		Title:     "Halo",
		Platform:  "PC",
		Developer: "Bungie",
		Publisher: "Xbox Game Studios",
	}
	if subset != want {
		t.Errorf("Merge(subset) = %+v, want %+v", subset, want)
	}

	if got := stored.Merge(VideoGameType{Title: "  ", Developer: "\n"}); got != stored {
		t.Errorf("Merge(all blank) = %+v, want the stored record unchanged", got)
	}
}

func TestVideoGameSanitise(t *testing.T) {
	m := VideoGameType{
		Title:    "  <b>Ratchet</b> & Clank ",
		Platform: `<script>alert("x")</script>PS2`,
	}
	m.Sanitise()

	if m.Title != "Ratchet & Clank" {
		t.Errorf("Sanitise() title = %q", m.Title)
	}
	if m.Platform != "PS2" {
		t.Errorf("Sanitise() platform = %q", m.Platform)
	}

	encoded := []struct {
		in   string
		want string
	}{
		{`&lt;script&gt;alert(1)&lt;/script&gt;Halo`, "Halo"},
		{`&lt;b onclick="x()"&gt;Myst&lt;/b&gt;`, "Myst"},
		{`&amp;lt;i&amp;gt;Doom&amp;lt;/i&amp;gt;`, "Doom"},
		{`Tom &amp; Jerry`, "Tom & Jerry"},
		{`1 < 2`, "1 < 2"},
	}
	for _, tc := range encoded {
		m := VideoGameType{Title: tc.in}
		m.Sanitise()
		if m.Title != tc.want {
			t.Errorf("Sanitise(%q) title = %q, want %q", tc.in, m.Title, tc.want)
		}
	}
}

func TestNewVideoGamesUsesCatalogKeys(t *testing.T) {
	games, err := NewVideoGames(
		NewMemoryVideoGameStore(),
		cache.NewStore(cache.NewMemoryBackend(), nil),
		5*time.Minute,
		10*time.Minute,
	)
	if err != nil {
		t.Fatalf("NewVideoGames() %v", err)
	}

	if games.ListKey() != "videogames" || games.ItemKey(4) != "videogames:4" {
		t.Errorf("keys = %q, %q", games.ListKey(), games.ItemKey(4))
	}

	if _, err := NewVideoGames(NewMemoryVideoGameStore(), cache.NewStore(cache.NewMemoryBackend(), nil), time.Minute, time.Second); err == nil {
		t.Errorf("NewVideoGames() accepted an item ttl shorter than the list ttl")
	}
}

func TestVideoGamesRejectsOverlongUpdate(t *testing.T) {
	ctx := context.Background()
	records := NewMemoryVideoGameStore()
	games, _ := NewVideoGames(records, cache.NewStore(cache.NewMemoryBackend(), nil), time.Minute, time.Minute)

	created, err := games.Create(ctx, &VideoGameType{Title: "Myst"})
	if err != nil {
		t.Fatalf("Create() %v", err)
	}

	err = games.Update(ctx, created.ID, &VideoGameType{Title: strings.Repeat("m", MaxFieldLength+1)})
	if !errors.Is(err, e.ErrInvalidInput) {
		t.Errorf("Update() with an overlong title error = %v, want ErrInvalidInput", err)
	}

	stored, _, _ := records.FindByID(ctx, created.ID)
	if stored.Title != "Myst" {
		t.Errorf("rejected Update() changed the record to %+v", stored)
	}
}

func TestMemoryVideoGameStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryVideoGameStore()

	a, _ := s.Insert(ctx, VideoGameType{Title: "A"})
	b, _ := s.Insert(ctx, VideoGameType{Title: "B"})
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("Insert() ids = %d, %d, want 1, 2", a.ID, b.ID)
	}

	b.Title = "B2"
	if err := s.Update(ctx, b); err != nil {
		t.Fatalf("Update() %v", err)
	}
	if err := s.Delete(ctx, a); err != nil {
		t.Fatalf("Delete() %v", err)
	}

	ems, _ := s.ListAll(ctx)
	if len(ems) != 1 || ems[0] != (VideoGameType{ID: 2, Title: "B2"}) {
		t.Errorf("ListAll() = %+v", ems)
	}
	if _, ok, _ := s.FindByID(ctx, a.ID); ok {
		t.Errorf("FindByID() found a deleted row")
	}

	if err := s.Update(ctx, a); !errors.Is(err, e.ErrNotFound) {
		t.Errorf("Update() of a deleted row error = %v, want ErrNotFound", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := s.ListAll(cancelled); !errors.Is(err, e.ErrStoreUnavailable) {
		t.Errorf("ListAll() with a cancelled context error = %v, want ErrStoreUnavailable", err)
	}
}
