package streamwalk

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// setupLargeTestDir creates a larger test directory structure for benchmarking
func setupLargeTestDir(b *testing.B) string {
	tempDir := b.TempDir()

	for i := 0; i < 5; i++ {
		dirPath := filepath.Join(tempDir, fmt.Sprintf("dir%d", i))
		for j := 0; j < 5; j++ {
			subdirPath := filepath.Join(dirPath, fmt.Sprintf("subdir%d", j))
			if err := os.MkdirAll(subdirPath, 0755); err != nil {
				b.Fatalf("Failed to create subdirectory: %v", err)
			}

			for k := 0; k < 10; k++ {
				for _, ext := range []string{".txt", ".go", ".md", ".json", ".yaml"} {
					filePath := filepath.Join(subdirPath, fmt.Sprintf("file%d%s", k, ext))
					if err := os.WriteFile(filePath, nil, 0644); err != nil {
						b.Fatalf("Failed to create file: %v", err)
					}
				}
			}
		}
	}

	if err := os.Symlink(filepath.Join(tempDir, "dir0"), filepath.Join(tempDir, "symlink")); err != nil {
		b.Logf("Failed to create symlink (might be expected on some platforms): %v", err)
	}
	return tempDir
}

func drainStream(b *testing.B, s *Stream[string]) int {
	ctx := context.Background()
	n := 0
	for _, err := range s.All(ctx) {
		if err != nil {
			b.Fatalf("walk failed: %v", err)
		}
		n++
	}
	return n
}

// BenchmarkLargeDirectoryWalk compares the stream against the standard library
// walkers on the same tree.
func BenchmarkLargeDirectoryWalk(b *testing.B) {
	tempDir := setupLargeTestDir(b)

	b.Run("filepath.WalkDir", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = filepath.WalkDir(tempDir, func(path string, d fs.DirEntry, err error) error {
				return nil
			})
		}
	})

	for _, workers := range []int{1, 4, 16, 0} {
		b.Run(fmt.Sprintf("concurrency=%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				drainStream(b, Walk(context.Background(), tempDir, Options{Concurrency: workers}))
			}
		})
	}
}

// BenchmarkHighWaterMark measures the cost of tighter backpressure.
func BenchmarkHighWaterMark(b *testing.B) {
	tempDir := setupLargeTestDir(b)

	for _, hwm := range []int{1, 16, 256, 0} {
		b.Run(fmt.Sprintf("hwm=%d", hwm), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				drainStream(b, Walk(context.Background(), tempDir, Options{Concurrency: 4, HighWaterMark: hwm}))
			}
		})
	}
}

func BenchmarkMemorySource(b *testing.B) {
	src, total := wideSource(20, 20, 10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if n := drainStream(b, Walk(context.Background(), "/r", Options{Source: src, Concurrency: 8, HighWaterMark: 64})); n != total {
			b.Fatalf("walked %d entries, want %d", n, total)
		}
	}
}
