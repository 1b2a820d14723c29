package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCatalog(t *testing.T) {
	catalog, err := ParseCatalog(strings.NewReader(`
topics:
  - slug: space-race
    name: Space Race
events:
  - topic: space-race
    title: Sputnik 1
    date_start: "1957-10-04"
    tags: [satellite]
`))
	require.NoError(t, err)
	require.Len(t, catalog.Events, 1)
	assert.Equal(t, "1957-10-04", catalog.Events[0].DateStart)
	assert.Equal(t, []string{"satellite"}, catalog.Events[0].Tags)
}

func TestParseCatalogRejectsUnknownFields(t *testing.T) {
	_, err := ParseCatalog(strings.NewReader("topics:\n  - slug: x\n    nmae: typo\n"))
	assert.Error(t, err)
}

func TestParseCatalogEmpty(t *testing.T) {
	catalog, err := ParseCatalog(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, catalog.Topics)
}
