package models

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/microcosm-cc/gamecatalog/cache"
	"github.com/microcosm-cc/gamecatalog/cacheaside"
)

// VideoGamesCollection is the cache key namespace for video games
const VideoGamesCollection = "videogames"

// MaxFieldLength is the longest text field accepted, in runes
const MaxFieldLength = 255

// VideoGameType is a catalog entry
type VideoGameType struct {
	ID        int64  `json:"id" msgpack:"id"`
	Title     string `json:"title" msgpack:"title"`
	Platform  string `json:"platform" msgpack:"platform"`
	Developer string `json:"developer" msgpack:"developer"`
	Publisher string `json:"publisher" msgpack:"publisher"`
}

// VideoGameStore is the record store shape the catalog needs
type VideoGameStore = cacheaside.RecordStore[VideoGameType]

// VideoGames coordinates reads and writes of the catalog
type VideoGames = cacheaside.Coordinator[VideoGameType]

// NewVideoGames returns the coordinator for the videogames collection
func NewVideoGames(
	records VideoGameStore,
	store *cache.Store,
	listTTL time.Duration,
	itemTTL time.Duration,
) (*VideoGames, error) {
	return cacheaside.New(
		cacheaside.Config{
			Collection: VideoGamesCollection,
			ListTTL:    listTTL,
			ItemTTL:    itemTTL,
		},
		records,
		store,
		VideoGamePolicy,
	)
}

// VideoGamePolicy supplies identity, validation and merging to the
// coordinator
var VideoGamePolicy = cacheaside.Policy[VideoGameType]{
	ID:       func(m VideoGameType) int64 { return m.ID },
	Validate: func(m VideoGameType) error { return m.Validate() },
	Merge:    func(stored, patch VideoGameType) VideoGameType { return stored.Merge(patch) },
}

// Validate returns an error if a field is too long or all fields are blank
func (m VideoGameType) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.RuneLength(0, MaxFieldLength)),
		validation.Field(&m.Platform, validation.RuneLength(0, MaxFieldLength)),
		validation.Field(&m.Developer, validation.RuneLength(0, MaxFieldLength)),
		validation.Field(&m.Publisher, validation.RuneLength(0, MaxFieldLength)),
	)
	if err != nil {
		return err
	}

	if m.IsBlank() {
		return fmt.Errorf("at least one of title, platform, developer or publisher is required")
	}

	return nil
}

// IsBlank is true when no text field carries a value
func (m VideoGameType) IsBlank() bool {
	return blank(m.Title) &&
		blank(m.Platform) &&
		blank(m.Developer) &&
		blank(m.Publisher)
}

// Merge returns m with every non-blank field of patch applied. Blank fields
// in patch keep the stored value, and the identifier never changes.
func (m VideoGameType) Merge(patch VideoGameType) VideoGameType {
	if !blank(patch.Title) {
		m.Title = patch.Title
	}
	if !blank(patch.Platform) {
		m.Platform = patch.Platform
	}
	if !blank(patch.Developer) {
		m.Developer = patch.Developer
	}
	if !blank(patch.Publisher) {
		m.Publisher = patch.Publisher
	}
	return m
}

// Sanitise strips HTML and surrounding whitespace from the text fields
func (m *VideoGameType) Sanitise() {
	m.Title = strings.TrimSpace(SanitiseText(m.Title))
	m.Platform = strings.TrimSpace(SanitiseText(m.Platform))
	m.Developer = strings.TrimSpace(SanitiseText(m.Developer))
	m.Publisher = strings.TrimSpace(SanitiseText(m.Publisher))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
