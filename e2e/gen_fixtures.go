//go:build ignore

// gen_fixtures writes a small source tree for smoke-testing the batch command
// and the server's local backend.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/SMCodesP/imgtransform/internal/fixture"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	if err := os.MkdirAll(filepath.Join(dir, "cards"), 0o755); err != nil {
		fail(err)
	}

	// Wide banner, the 1000x500 JPEG -> width=500 WebP case.
	write(filepath.Join(dir, "banner.jpg"), fixture.JPEG(fixture.Gradient(1000, 500)))

	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("card-%d.png", i)
		write(filepath.Join(dir, "cards", name), fixture.PNG(fixture.SolidWithBorder(200, 150, uint8(i*60))))
	}

	// Alpha has to survive resize and every alpha-capable encoder.
	write(filepath.Join(dir, "logo.png"), fixture.PNG(fixture.AlphaGradient(100, 100)))

	// Noise compresses badly; exercises --no-regress-size.
	write(filepath.Join(dir, "noise.png"), fixture.PNG(fixture.Noise(64, 64)))

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 6 fixtures in %s\n", dir)
}

func write(path string, data []byte) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
