package refdata

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed lookups
var lookupFS embed.FS

// LookupFile opens one of the embedded lookup CSVs by name, e.g.
// "counties.csv".
func LookupFile(name string) (fs.File, error) {
	f, err := lookupFS.Open("lookups/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded lookup %s: %w", name, err)
	}
	return f, nil
}

// LookupData returns the raw bytes of an embedded lookup CSV.
func LookupData(name string) ([]byte, error) {
	return lookupFS.ReadFile("lookups/" + name)
}
