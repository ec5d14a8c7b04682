package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/kdimtricp/piiscan/internal/fakeserver"
)

// dev-server runs the in-memory stand-in for the analysis service, for
// developing the client pipeline without the real ML backend.
func main() {
	var (
		addr    = flag.String("addr", ":8000", "Listen address")
		fetches = flag.Int("fetches", 2, "Status fetches before a job reports completed")
	)
	flag.Parse()

	srv := fakeserver.New()
	srv.FetchesUntilDone = *fetches

	log.Printf("Fake analysis service listening on %s", *addr)
	log.Printf("Jobs complete after %d status fetches", *fetches)

	if err := http.ListenAndServe(*addr, srv.Router()); err != nil {
		log.Fatal(err)
	}
}
