package story

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// GenerateStoryPath creates a timestamped story filename inside dir
func GenerateStoryPath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("story_%s.yaml", timestamp))
}

// FindLatestStory finds the most recently modified story file in dir
func FindLatestStory(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read stories directory: %w", err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var stories []candidate
	for _, entry := range entries {
		name := strings.ToLower(entry.Name())
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		stories = append(stories, candidate{filepath.Join(dir, entry.Name()), info.ModTime()})
	}

	if len(stories) == 0 {
		return "", fmt.Errorf("no story files found in %s", dir)
	}

	// Newest first
	sort.Slice(stories, func(i, j int) bool {
		return stories[i].mod.After(stories[j].mod)
	})

	return stories[0].path, nil
}
