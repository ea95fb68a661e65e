package testutil

// SpotifyTokenResponse creates a mock Spotify token response
func SpotifyTokenResponse() map[string]interface{} {
	return map[string]interface{}{
		"access_token": "mock-access-token",
		"token_type":   "Bearer",
		"expires_in":   3600,
	}
}

// SpotifyTrack creates one mock Spotify track object
func SpotifyTrack(trackID, title, artist string, popularity int) map[string]interface{} {
	return map[string]interface{}{
		"id":   trackID,
		"name": title,
		"artists": []map[string]interface{}{
			{"id": "artist-" + trackID, "name": artist},
		},
		"duration_ms": 240000,
		"popularity":  popularity,
		"external_urls": map[string]string{
			"spotify": "https://open.spotify.com/track/" + trackID,
		},
	}
}

// SpotifySearchResponse creates a mock Spotify search response
func SpotifySearchResponse(tracks ...map[string]interface{}) map[string]interface{} {
	items := tracks
	if items == nil {
		items = []map[string]interface{}{}
	}
	return map[string]interface{}{
		"tracks": map[string]interface{}{
			"items": items,
			"total": len(items),
		},
	}
}

// SetlistResponse creates a mock setlist.fm setlist response
func SetlistResponse(id, artist string, sets ...map[string]interface{}) map[string]interface{} {
	if sets == nil {
		sets = []map[string]interface{}{}
	}
	return map[string]interface{}{
		"id":        id,
		"eventDate": "23-07-2022",
		"artist": map[string]interface{}{
			"mbid": "mbid-" + id,
			"name": artist,
		},
		"venue": map[string]interface{}{
			"name": "Foro Sol",
			"city": map[string]interface{}{
				"name": "Mexico City",
				"country": map[string]interface{}{
					"code": "MX",
					"name": "Mexico",
				},
			},
		},
		"url":  "https://www.setlist.fm/setlist/" + id + ".html",
		"sets": map[string]interface{}{"set": sets},
	}
}

// SetlistSet creates one mock set within a setlist response
func SetlistSet(name string, encore int, songs ...map[string]interface{}) map[string]interface{} {
	set := map[string]interface{}{
		"song": songs,
	}
	if name != "" {
		set["name"] = name
	}
	if encore > 0 {
		set["encore"] = encore
	}
	return set
}

// SetlistSong creates one mock song within a set
func SetlistSong(name string) map[string]interface{} {
	return map[string]interface{}{"name": name}
}
