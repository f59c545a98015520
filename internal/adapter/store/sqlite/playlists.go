package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sonata-music/sonata/internal/domain"
)

// playlistCollection implements ports.PlaylistCollection over the playlists
// table. Membership is stored as a JSON array so insertion order survives
// round trips; the storage layer does not enforce uniqueness or referential
// integrity, the repository does.
type playlistCollection struct {
	store *Store
}

// LoadAll retrieves every playlist record in insertion order.
func (c *playlistCollection) LoadAll(ctx context.Context) ([]domain.Playlist, error) {
	ctx = ensureContext(ctx)
	if c.store.closed.Load() {
		return nil, domain.NewStorageError("loadAll", "playlists", domain.ErrNotInitialized)
	}

	rows, err := c.store.db.QueryContext(ctx, `
        SELECT id, name, genre, mood, time_of_day, song_ids, date_created
        FROM playlists
        ORDER BY rowid`)
	if err != nil {
		return nil, domain.NewStorageError("loadAll", "playlists", err)
	}
	defer func() { _ = rows.Close() }()

	playlists := make([]domain.Playlist, 0)
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, domain.NewStorageError("loadAll", "playlists", err)
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStorageError("loadAll", "playlists", err)
	}

	return playlists, nil
}

// Put upserts a playlist by id.
func (c *playlistCollection) Put(ctx context.Context, playlist domain.Playlist) error {
	songIDs, err := json.Marshal(playlist.SongIDs)
	if err != nil {
		return domain.NewStorageError("put", "playlists", fmt.Errorf("marshal song ids: %w", err))
	}

	err = c.store.exec(ctx, `
        INSERT INTO playlists (
            id, name, genre, mood, time_of_day, song_ids, date_created
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            name = excluded.name,
            genre = excluded.genre,
            mood = excluded.mood,
            time_of_day = excluded.time_of_day,
            song_ids = excluded.song_ids,
            date_created = excluded.date_created`,
		playlist.ID,
		playlist.Name,
		string(playlist.Genre),
		nullableString(playlist.Mood),
		nullableString(playlist.TimeOfDay),
		string(songIDs),
		playlist.DateCreated.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return domain.NewStorageError("put", "playlists", err)
	}
	return nil
}

// Delete removes a playlist by id. Deleting a missing id is a no-op.
func (c *playlistCollection) Delete(ctx context.Context, id string) error {
	if err := c.store.exec(ctx, "DELETE FROM playlists WHERE id = ?", id); err != nil {
		return domain.NewStorageError("delete", "playlists", err)
	}
	return nil
}

func scanPlaylist(rows *sql.Rows) (domain.Playlist, error) {
	var (
		playlist    domain.Playlist
		genre       string
		mood        sql.NullString
		timeOfDay   sql.NullString
		songIDs     string
		dateCreated string
	)

	if err := rows.Scan(
		&playlist.ID, &playlist.Name, &genre, &mood, &timeOfDay, &songIDs, &dateCreated,
	); err != nil {
		return domain.Playlist{}, err
	}

	playlist.Genre = domain.Genre(genre)
	playlist.Mood = mood.String
	playlist.TimeOfDay = timeOfDay.String

	if err := json.Unmarshal([]byte(songIDs), &playlist.SongIDs); err != nil {
		return domain.Playlist{}, fmt.Errorf("unmarshal song ids for %q: %w", playlist.ID, err)
	}
	if playlist.SongIDs == nil {
		playlist.SongIDs = []string{}
	}

	created, err := time.Parse(time.RFC3339Nano, dateCreated)
	if err != nil {
		return domain.Playlist{}, fmt.Errorf("parse date_created for %q: %w", playlist.ID, err)
	}
	playlist.DateCreated = created

	return playlist, nil
}
