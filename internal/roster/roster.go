// Package roster loads tracked-user rosters and writes them to the user
// directory.
package roster

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/ports"
)

// Roster is a batch of users from one source.
type Roster struct {
	Source string        `json:"source"`
	Users  []domain.User `json:"users"`
}

// csvColumns are the recognised CSV headers. Only id and name are required.
var csvColumns = []string{"id", "name", "email", "avatar", "is_online", "latitude", "longitude"}

// Decode reads a roster in the format implied by name's extension:
// .csv or anything else as JSON.
func Decode(name string, r io.Reader) (*Roster, error) {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		users, err := decodeCSV(r)
		if err != nil {
			return nil, err
		}
		return &Roster{Source: filepath.Base(name), Users: users}, nil
	}

	var roster Roster
	if err := json.NewDecoder(r).Decode(&roster); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if roster.Source == "" {
		roster.Source = filepath.Base(name)
	}
	return &roster, nil
}

func decodeCSV(r io.Reader) ([]domain.User, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range csvColumns[:2] {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	coord := func(rec []string, name string, line int) (*float64, error) {
		s := field(rec, name)
		if s == "" {
			return nil, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, name, err)
		}
		return &v, nil
	}

	var users []domain.User
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		u := domain.User{
			ID:     field(rec, "id"),
			Name:   field(rec, "name"),
			Email:  field(rec, "email"),
			Avatar: field(rec, "avatar"),
		}
		if s := field(rec, "is_online"); s != "" {
			if u.IsOnline, err = strconv.ParseBool(s); err != nil {
				return nil, fmt.Errorf("line %d: is_online: %w", line, err)
			}
		}
		if u.Latitude, err = coord(rec, "latitude", line); err != nil {
			return nil, err
		}
		if u.Longitude, err = coord(rec, "longitude", line); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// Validate checks a single roster entry.
func Validate(u domain.User) error {
	if strings.TrimSpace(u.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("user %s: name is required", u.ID)
	}
	if (u.Latitude == nil) != (u.Longitude == nil) {
		return fmt.Errorf("user %s: latitude and longitude must be given together", u.ID)
	}
	if pos, ok := u.Location(); ok && !pos.Valid() {
		return fmt.Errorf("user %s: position %.6f,%.6f out of range", u.ID, pos.Lat, pos.Lng)
	}
	return nil
}

// Result summarises an import.
type Result struct {
	Imported int
	Skipped  int
	Failed   int
}

// Import upserts every valid user with at most workers concurrent writes.
// Invalid entries are skipped and logged; write failures are counted.
func Import(ctx context.Context, users ports.UserRepository, roster *Roster, workers int) Result {
	if workers < 1 {
		workers = 1
	}

	var (
		wg       sync.WaitGroup
		imported atomic.Int64
		failed   atomic.Int64
		skipped  int
	)
	sem := make(chan struct{}, workers)

	for i := range roster.Users {
		u := roster.Users[i]
		if err := Validate(u); err != nil {
			slog.Warn("roster entry skipped", "source", roster.Source, "index", i, "error", err)
			skipped++
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := users.Upsert(ctx, &u); err != nil {
				slog.Error("upsert user", "id", u.ID, "error", err)
				failed.Add(1)
				return
			}
			imported.Add(1)
		}()
	}

	wg.Wait()
	return Result{Imported: int(imported.Load()), Skipped: skipped, Failed: int(failed.Load())}
}
