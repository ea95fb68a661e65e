package services

import (
	"fmt"
	"strings"
)

// FlattenedSong is one performed item with its stable 1-based position across
// the whole setlist. Position is the contract downstream consumers key on.
type FlattenedSong struct {
	Position int
	Name     string
	Notes    *string
	IsTape   bool
}

// FlattenSetlist concatenates every set in document order into a single
// ordered song list. Positions are contiguous from 1 regardless of set
// boundaries.
func FlattenSetlist(setlist *Setlist) []FlattenedSong {
	flattened := make([]FlattenedSong, 0, 24)
	position := 0

	for _, set := range setlist.Sets.Set {
		for _, song := range set.Song {
			position++
			flattened = append(flattened, FlattenedSong{
				Position: position,
				Name:     song.Name,
				Notes:    songNotes(song, set),
				IsTape:   song.Tape,
			})
		}
	}

	return flattened
}

// songNotes assembles the descriptive annotations for a song in fixed order:
// free-form info, guest performer, cover attribution, encore number, set
// name. Returns nil when no annotation applies.
func songNotes(song SetlistSong, set SetlistSet) *string {
	var parts []string

	if song.Info != "" {
		parts = append(parts, song.Info)
	}
	if song.With != nil && song.With.Name != "" {
		parts = append(parts, "featuring "+song.With.Name)
	}
	if song.Cover != nil && song.Cover.Name != "" {
		parts = append(parts, "cover of "+song.Cover.Name)
	}
	if set.Encore > 0 {
		parts = append(parts, fmt.Sprintf("Encore %d", set.Encore))
	}
	if set.Name != "" {
		parts = append(parts, "["+set.Name+"]")
	}

	if len(parts) == 0 {
		return nil
	}

	notes := strings.Join(parts, " · ")
	return &notes
}
