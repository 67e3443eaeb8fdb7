package munitions

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FavoritesFile is the default name of the favorites list.
const FavoritesFile = "fav_muni.txt"

// Favorites is an insertion-ordered set of weapon ids.
type Favorites struct {
	ids   []int
	index map[int]struct{}
}

// NewFavorites returns a set holding ids, duplicates collapsed.
func NewFavorites(ids ...int) *Favorites {
	f := &Favorites{index: make(map[int]struct{})}
	for _, id := range ids {
		f.Add(id)
	}
	return f
}

// Add inserts id. Returns false when it was already present.
func (f *Favorites) Add(id int) bool {
	if _, ok := f.index[id]; ok {
		return false
	}
	f.index[id] = struct{}{}
	f.ids = append(f.ids, id)
	return true
}

// Remove deletes id. Returns false when it was absent.
func (f *Favorites) Remove(id int) bool {
	if _, ok := f.index[id]; !ok {
		return false
	}
	delete(f.index, id)
	for i, v := range f.ids {
		if v == id {
			f.ids = append(f.ids[:i], f.ids[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether id is a favorite.
func (f *Favorites) Contains(id int) bool {
	_, ok := f.index[id]
	return ok
}

// Len returns the number of favorites.
func (f *Favorites) Len() int {
	return len(f.ids)
}

// IDs returns a copy of the ids in insertion order.
func (f *Favorites) IDs() []int {
	out := make([]int, len(f.ids))
	copy(out, f.ids)
	return out
}

// ParseFavorites reads one id per line. Blank and malformed lines are
// skipped; the count of skipped malformed lines is returned. A scan error
// (such as an oversized line) ends parsing and is returned with the ids
// read so far.
func ParseFavorites(data []byte) (*Favorites, int, error) {
	f := NewFavorites()
	skipped := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.Atoi(line)
		if err != nil {
			skipped++
			continue
		}
		f.Add(id)
	}
	if err := scanner.Err(); err != nil {
		return f, skipped, fmt.Errorf("scan favorites: %w", err)
	}
	return f, skipped, nil
}

// Marshal renders the set as newline-separated ids.
func (f *Favorites) Marshal() []byte {
	var b strings.Builder
	for i, id := range f.ids {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(id))
	}
	return []byte(b.String())
}

// LoadFavorites reads the favorites list at path. A missing file is an empty set.
func LoadFavorites(path string) (*Favorites, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewFavorites(), 0, nil
		}
		return NewFavorites(), 0, fmt.Errorf("read favorites: %w", err)
	}
	return ParseFavorites(data)
}

// SaveFavorites atomically rewrites the whole favorites list.
func SaveFavorites(path string, f *Favorites) error {
	return writeFileAtomic(path, f.Marshal(), 0644)
}
