// Command debugsearch queries a single platform adapter and prints what came
// back before and after normalization. Useful when an upstream changes shape.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/leadscout/internal/normalize"
	"github.com/hyperifyio/leadscout/internal/platform"
	"github.com/hyperifyio/leadscout/internal/search"
)

func main() {
	base := os.Getenv("SEARX_URL")
	if base == "" {
		base = "http://localhost:8888"
	}
	id := search.LinkedIn
	if len(os.Args) > 1 {
		id = search.PlatformID(os.Args[1])
	}
	kw := "job vacancy"
	if len(os.Args) > 2 {
		kw = os.Args[2]
	}
	hc := platform.NewHTTPClient(platform.DefaultTimeout)
	var a platform.Adapter
	switch id {
	case search.Facebook:
		a = platform.NewFacebookAdapter(base, os.Getenv("SEARX_KEY"), hc)
	case search.Instagram:
		a = platform.NewInstagramAdapter(base, os.Getenv("SEARX_KEY"), hc)
	case search.LinkedIn:
		a = &platform.LinkedInAdapter{BaseURL: os.Getenv("LINKEDIN_BASE_URL"), HTTPClient: hc}
	default:
		fmt.Fprintf(os.Stderr, "unknown platform %q\n", id)
		os.Exit(1)
	}
	q, err := search.NewQuery(kw, search.DefaultLocation, 0, []search.PlatformID{id}, 5)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	raws, err := a.Search(ctx, q)
	fmt.Println("err:", err)
	for i, r := range raws {
		fmt.Printf("raw %d. %+v\n", i+1, r.Payload)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	for i, r := range normalize.NormalizeAll(raws, logger) {
		fmt.Printf("%d. %s — %s\n   %s\n", i+1, r.Title, r.URL, r.ID)
	}
}
