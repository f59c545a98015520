package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sonata-music/sonata/internal/domain"
)

// songCollection implements ports.SongCollection over the songs table.
type songCollection struct {
	store *Store
}

// LoadAll retrieves every song record in insertion order.
func (c *songCollection) LoadAll(ctx context.Context) ([]domain.Song, error) {
	ctx = ensureContext(ctx)
	if c.store.closed.Load() {
		return nil, domain.NewStorageError("loadAll", "songs", domain.ErrNotInitialized)
	}

	rows, err := c.store.db.QueryContext(ctx, `
        SELECT id, name, audio_data, mime_type, size_bytes, date_added,
               primary_playlist_id, is_favorite, play_count, last_played
        FROM songs
        ORDER BY rowid`)
	if err != nil {
		return nil, domain.NewStorageError("loadAll", "songs", err)
	}
	defer func() { _ = rows.Close() }()

	songs := make([]domain.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, domain.NewStorageError("loadAll", "songs", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("loadAll", "songs", err)
	}

	return songs, nil
}

// Put upserts a song by id.
func (c *songCollection) Put(ctx context.Context, song domain.Song) error {
	var playCount any
	if song.PlayCount != nil {
		playCount = *song.PlayCount
	}
	var lastPlayed any
	if song.LastPlayed != nil {
		lastPlayed = song.LastPlayed.UTC().Format(time.RFC3339Nano)
	}

	err := c.store.exec(ctx, `
        INSERT INTO songs (
            id, name, audio_data, mime_type, size_bytes, date_added,
            primary_playlist_id, is_favorite, play_count, last_played
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            audio_data = excluded.audio_data,
            mime_type = excluded.mime_type,
            size_bytes = excluded.size_bytes,
            date_added = excluded.date_added,
            primary_playlist_id = excluded.primary_playlist_id,
            is_favorite = excluded.is_favorite,
            play_count = excluded.play_count,
            last_played = excluded.last_played`,
		song.ID,
		song.Name,
		song.AudioData,
		song.MIMEType,
		song.SizeBytes,
		song.DateAdded.UTC().Format(time.RFC3339Nano),
		nullableString(song.PrimaryPlaylistID),
		boolToInt(song.IsFavorite),
		playCount,
		lastPlayed,
	)
	if err != nil {
		return domain.NewStorageError("put", "songs", err)
	}
	return nil
}

// Delete removes a song by id. Deleting a missing id is a no-op.
func (c *songCollection) Delete(ctx context.Context, id string) error {
	if err := c.store.exec(ctx, "DELETE FROM songs WHERE id = ?", id); err != nil {
		return domain.NewStorageError("delete", "songs", err)
	}
	return nil
}

func scanSong(rows *sql.Rows) (domain.Song, error) {
	var (
		song              domain.Song
		dateAdded         string
		primaryPlaylistID sql.NullString
		isFavorite        int
		playCount         sql.NullInt64
		lastPlayed        sql.NullString
	)

	if err := rows.Scan(
		&song.ID, &song.Name, &song.AudioData, &song.MIMEType, &song.SizeBytes,
		&dateAdded, &primaryPlaylistID, &isFavorite, &playCount, &lastPlayed,
	); err != nil {
		return domain.Song{}, err
	}

	added, err := time.Parse(time.RFC3339Nano, dateAdded)
	if err != nil {
		return domain.Song{}, fmt.Errorf("parse date_added for %q: %w", song.ID, err)
	}
	song.DateAdded = added
	song.PrimaryPlaylistID = primaryPlaylistID.String
	song.IsFavorite = isFavorite != 0

	if playCount.Valid {
		count := int(playCount.Int64)
		song.PlayCount = &count
	}
	if lastPlayed.Valid {
		played, err := time.Parse(time.RFC3339Nano, lastPlayed.String)
		if err != nil {
			return domain.Song{}, fmt.Errorf("parse last_played for %q: %w", song.ID, err)
		}
		song.LastPlayed = &played
	}

	return song, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
